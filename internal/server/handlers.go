package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/reelcraft/newsreel/internal/domain"
	"github.com/reelcraft/newsreel/internal/renderer"
	pkgerrors "github.com/reelcraft/newsreel/pkg/errors"
)

const maxUploadMemory = 64 << 20

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{Status: "error", Message: message})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	images := r.MultipartForm.File["images"]
	audios := r.MultipartForm.File["audios"]
	if len(images) == 0 {
		writeError(w, http.StatusBadRequest, "at least one image is required")
		return
	}
	if len(images) != len(audios) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("number of images (%d) must match number of audios (%d)", len(images), len(audios)))
		return
	}

	previewMode := s.config.Video.PreviewMode
	if v := r.FormValue("preview_mode"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "preview_mode must be a boolean")
			return
		}
		previewMode = parsed
	}

	jobID := uuid.New().String()

	slides, cleanup, err := s.saveUploads(jobID, images, audios)
	if err != nil {
		s.logger.Error("Failed to save uploads", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer cleanup()

	resolution := renderer.FullResolution
	if previewMode {
		resolution = renderer.PreviewResolution
	}
	outputPath := filepath.Join(s.config.Video.OutputDir, jobID+".mp4")

	s.logger.Info("Starting video generation", "job_id", jobID, "slides", len(slides), "preview", previewMode)

	err = s.renderer.Render(r.Context(), renderer.Request{
		Slides:            slides,
		Resolution:        resolution,
		TransitionSeconds: s.config.Video.TransitionSeconds,
		FPS:               s.config.Video.FPS,
		OutputPath:        outputPath,
	})
	if err != nil {
		s.logger.Error("Video generation failed", "job_id", jobID, "error", err)
		if pkgerrors.IsInvalidInput(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("Video generation completed", "job_id", jobID, "output", outputPath)

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", jobID+".mp4"))
	http.ServeFile(w, r, outputPath)
}

// saveUploads writes each uploaded pair to disk under the job's prefix and
// returns the slides plus a cleanup func that removes everything written.
func (s *Server) saveUploads(jobID string, images, audios []*multipart.FileHeader) ([]domain.Slide, func(), error) {
	imageDir := filepath.Join(s.config.Video.UploadDir, "images")
	audioDir := filepath.Join(s.config.Video.UploadDir, "audio")

	var saved []string
	cleanup := func() {
		for _, path := range saved {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("Failed to remove uploaded file", "path", path, "error", err)
			}
		}
	}

	slides := make([]domain.Slide, len(images))
	for i := range images {
		imagePath := filepath.Join(imageDir, fmt.Sprintf("%s_%d_%s", jobID, i, filepath.Base(images[i].Filename)))
		if err := saveUpload(images[i], imagePath); err != nil {
			cleanup()
			return nil, nil, err
		}
		saved = append(saved, imagePath)

		audioPath := filepath.Join(audioDir, fmt.Sprintf("%s_%d_%s", jobID, i, filepath.Base(audios[i].Filename)))
		if err := saveUpload(audios[i], audioPath); err != nil {
			cleanup()
			return nil, nil, err
		}
		saved = append(saved, audioPath)

		slides[i] = domain.Slide{ImagePath: imagePath, AudioPath: audioPath}
	}
	return slides, cleanup, nil
}

func saveUpload(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}
