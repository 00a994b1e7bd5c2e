//go:build noebiten

package forceviz

import (
	"errors"

	"github.com/opd-ai/go-forceviz/internal/config"
)

var errNoDisplay = errors.New("built without window support (noebiten)")

func newFrontend(*config.Config, *scene) (frontend, error) {
	return nil, errNoDisplay
}
