package physics

import (
	"fmt"
	"strings"

	"github.com/san-kum/trajfit/internal/dynamo"
)

// Kind selects one of the force models.
type Kind int

const (
	Vacuum Kind = iota
	Drag
	Spin
)

var kindNames = map[Kind]string{
	Vacuum: "vacuum",
	Drag:   "drag",
	Spin:   "spin",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the model names used in config files and on the command line.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vacuum":
		return Vacuum, nil
	case "drag", "air":
		return Drag, nil
	case "spin":
		return Spin, nil
	}
	return 0, fmt.Errorf("%w: unknown model %q", dynamo.ErrParameterBounds, name)
}

// Kinds lists every model in declaration order.
func Kinds() []Kind {
	return []Kind{Vacuum, Drag, Spin}
}

// New validates params and returns the selected force model.
func New(kind Kind, params Params) (dynamo.System, error) {
	if err := params.Validate(kind); err != nil {
		return nil, err
	}
	switch kind {
	case Vacuum:
		return &VacuumModel{Params: params}, nil
	case Drag:
		return &DragModel{Params: params}, nil
	case Spin:
		return &SpinModel{Params: params}, nil
	}
	return nil, fmt.Errorf("unknown model kind: %d", int(kind))
}
