package InputParameters

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
	"go.uber.org/multierr"
)

var ErrInputParameters = errors.New("invalid input parameters")

// Parameters obtained from the YAML input file
type InputParametersFlow struct {
	Title                       string                            `json:"Title"`
	Dimension                   int                               `json:"Dimension"`
	FlowModel                   string                            `json:"FlowModel"`
	NumberOfSpecies             int                               `json:"NumberOfSpecies"`
	CFL                         float64                           `json:"CFL"`
	EquationOfState             EquationOfStateParameters         `json:"EquationOfState"`
	ConvectiveFluxReconstructor ConvectiveFluxParameters          `json:"ConvectiveFluxReconstructor"`
	DiffusiveFluxReconstructor  DiffusiveFluxParameters           `json:"DiffusiveFluxReconstructor"`
	Gravity                     GravityParameters                 `json:"Gravity"`
	Periodic                    []int                             `json:"Periodic"`
	BCs                         map[string]map[string]interface{} `json:"BoundaryConditions"` // First key is location, e.g. boundary_face_xlo
	GradientSensors             []GradientSensorParameters        `json:"GradientSensors"`
	Domain                      DomainParameters                  `json:"Domain"`
}

type EquationOfStateParameters struct {
	Type               string               `json:"Type"`               // IDEAL_GAS or STIFFENED_GAS
	MixingClosureModel string               `json:"MixingClosureModel"` // NO_ASSUMPTION, ISOTHERMAL or ISOBARIC
	Species            map[string][]float64 `json:"Species"`            // property name, one value per species
}

type ConvectiveFluxParameters struct {
	Type           string  `json:"Type"`          // FIRST_ORDER or WENO5_JS
	RiemannSolver  string  `json:"RiemannSolver"` // HLLC or ROE
	Characteristic bool    `json:"Characteristic"`
	Epsilon        float64 `json:"Epsilon"`
	Exponent       int     `json:"Exponent"`
}

type DiffusiveFluxParameters struct {
	Type      string    `json:"Type"` // empty disables diffusion, SECOND_ORDER
	Viscosity []float64 `json:"Viscosity"`
	Prandtl   []float64 `json:"Prandtl"`
}

type GravityParameters struct {
	Enabled bool      `json:"Enabled"`
	Vector  []float64 `json:"Vector"`
}

type GradientSensorParameters struct {
	Type     string `json:"Type"`     // DIFFERENCE_FIRST_ORDER or JAMESON
	Variable string `json:"Variable"` // derived or conservative variable name
}

// DomainParameters describe the patch layout used by the command line driver
type DomainParameters struct {
	InitType        string    `json:"InitType"` // Uniform, ShockBubble or SodShockTube
	Lo              []int     `json:"Lo"`
	Hi              []int     `json:"Hi"`
	XLo             []float64 `json:"XLo"`
	XHi             []float64 `json:"XHi"`
	NumberOfPatches int       `json:"NumberOfPatches"`
	// Uniform state in primitive variables
	State map[string][]float64 `json:"State"`
}

func (ip *InputParametersFlow) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInputParameters, fmt.Sprintf(format, args...))
}

// Validate reports every structural problem at once, model specific checks
// happen in the components that consume each section
func (ip *InputParametersFlow) Validate() (err error) {
	if ip.Dimension < 1 || ip.Dimension > 3 {
		err = multierr.Append(err, invalid("Dimension = %d, expected 1, 2 or 3", ip.Dimension))
	}
	if ip.NumberOfSpecies < 1 {
		err = multierr.Append(err, invalid("NumberOfSpecies = %d, expected >= 1", ip.NumberOfSpecies))
	}
	if strings.EqualFold(ip.FlowModel, "SINGLE_SPECIES") && ip.NumberOfSpecies != 1 {
		err = multierr.Append(err, invalid("FlowModel SINGLE_SPECIES requires NumberOfSpecies = 1, got %d",
			ip.NumberOfSpecies))
	}
	if len(ip.EquationOfState.Type) == 0 {
		err = multierr.Append(err, invalid("EquationOfState.Type is missing"))
	}
	if len(ip.ConvectiveFluxReconstructor.Type) == 0 {
		err = multierr.Append(err, invalid("ConvectiveFluxReconstructor.Type is missing"))
	}
	if ip.Gravity.Enabled && len(ip.Gravity.Vector) != ip.Dimension {
		err = multierr.Append(err, invalid("Gravity.Vector has %d entries, expected %d",
			len(ip.Gravity.Vector), ip.Dimension))
	}
	if len(ip.Periodic) != 0 && len(ip.Periodic) != ip.Dimension {
		err = multierr.Append(err, invalid("Periodic has %d entries, expected %d",
			len(ip.Periodic), ip.Dimension))
	}
	if ip.CFL < 0 {
		err = multierr.Append(err, invalid("CFL = %g, expected >= 0", ip.CFL))
	}
	return
}

func (ip *InputParametersFlow) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t\t= Dimension\n", ip.Dimension)
	fmt.Printf("[%s]\t\t= Flow Model\n", ip.FlowModel)
	fmt.Printf("[%d]\t\t\t\t= Number of Species\n", ip.NumberOfSpecies)
	fmt.Printf("%8.5f\t\t= CFL\n", ip.CFL)
	fmt.Printf("[%s/%s]\t= Equation of State/Mixing Closure\n",
		ip.EquationOfState.Type, ip.EquationOfState.MixingClosureModel)
	keys := make([]string, 0, len(ip.EquationOfState.Species))
	for k := range ip.EquationOfState.Species {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Species[%s] = %v\n", key, ip.EquationOfState.Species[key])
	}
	fmt.Printf("[%s/%s]\t\t= Convective Flux/Riemann Solver\n",
		ip.ConvectiveFluxReconstructor.Type, ip.ConvectiveFluxReconstructor.RiemannSolver)
	if len(ip.DiffusiveFluxReconstructor.Type) != 0 {
		fmt.Printf("[%s]\t\t= Diffusive Flux\n", ip.DiffusiveFluxReconstructor.Type)
	}
	if ip.Gravity.Enabled {
		fmt.Printf("%v\t\t= Gravity\n", ip.Gravity.Vector)
	}
	keys = keys[:0]
	for k := range ip.BCs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v\n", key, ip.BCs[key])
	}
}
