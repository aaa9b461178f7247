package fx

import (
	"github.com/reelcraft/newsreel/internal/repositories/render"
	"go.uber.org/fx"
)

var Module = fx.Options(
	render.Module,
)
