package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"go.firedancer.io/roprobe/pkg/features"
	"go.firedancer.io/roprobe/pkg/romodify"
	"gopkg.in/yaml.v3"
)

// ScenarioFile is the YAML form of a scenario suite.
type ScenarioFile struct {
	Scenarios []ScenarioConfig `yaml:"scenarios" validate:"required,min=1,unique=Name,dive"`
}

type ScenarioConfig struct {
	Name               string        `yaml:"name" validate:"required"`
	Description        string        `yaml:"description,omitempty"`
	Subject            SubjectConfig `yaml:"subject"`
	Disable            []string      `yaml:"disable,omitempty" validate:"dive,feature_gate"`
	OmitProgramAccount bool          `yaml:"omit_program_account,omitempty"`
	Steps              []StepConfig  `yaml:"steps" validate:"required,min=1,dive"`
	FinalByte          *uint8        `yaml:"final_byte,omitempty"`
}

type SubjectConfig struct {
	Writable     bool     `yaml:"writable,omitempty"`
	Data         ByteList `yaml:"data,omitempty,flow" validate:"max=1024,dive,min=0,max=255"`
	ForeignOwner bool     `yaml:"foreign_owner,omitempty"`
}

// StepConfig names the instruction either by opcode or as raw data.
type StepConfig struct {
	Op     string   `yaml:"op,omitempty" validate:"required_without=Data,excluded_with=Data"`
	Data   ByteList `yaml:"data,omitempty,flow" validate:"required_without=Op,dive,min=0,max=255"`
	Expect string   `yaml:"expect" validate:"required,oneof=success write-protection invariant runtime"`
}

// ByteList is a list of byte values. An empty but non-nil list is kept
// when encoding, so that an empty instruction survives a round trip.
type ByteList []int

func (b ByteList) IsZero() bool {
	return b == nil
}

// validate is shared; validator caches struct metadata per instance.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("feature_gate", func(fl validator.FieldLevel) bool {
		_, ok := features.GateByName(fl.Field().String())
		return ok
	})
	if err != nil {
		panic(fmt.Sprintf("registering feature_gate validation: %s", err))
	}
	return v
}

func LoadScenarioFile(path string) ([]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scenarios, err := ReadScenarios(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

func ParseScenarios(b []byte) ([]Scenario, error) {
	return ReadScenarios(bytes.NewReader(b))
}

// ReadScenarios decodes and validates a YAML scenario suite. Unknown keys
// are rejected.
func ReadScenarios(r io.Reader) ([]Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file ScenarioFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty scenario file")
		}
		return nil, fmt.Errorf("failed to decode scenarios: %w", err)
	}

	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}

	scenarios := make([]Scenario, 0, len(file.Scenarios))
	for _, cfg := range file.Scenarios {
		sc, err := cfg.Scenario()
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// Scenario converts the config into a runnable scenario. A subject
// without data starts as a single zero byte.
func (cfg *ScenarioConfig) Scenario() (Scenario, error) {
	sc := Scenario{
		Name:               cfg.Name,
		Description:        cfg.Description,
		OmitProgramAccount: cfg.OmitProgramAccount,
		Subject: Subject{
			Writable:     cfg.Subject.Writable,
			Data:         intsToBytes(cfg.Subject.Data),
			ForeignOwner: cfg.Subject.ForeignOwner,
		},
		FinalByte: cfg.FinalByte,
	}
	if sc.Subject.Data == nil {
		sc.Subject.Data = []byte{0}
	}

	for _, name := range cfg.Disable {
		gate, ok := features.GateByName(name)
		if !ok {
			return Scenario{}, fmt.Errorf("scenario %s: unknown feature gate %q", cfg.Name, name)
		}
		sc.Disable = append(sc.Disable, gate)
	}

	for i, stepCfg := range cfg.Steps {
		step := Step{Data: intsToBytes(stepCfg.Data), Expect: Outcome(stepCfg.Expect)}
		if stepCfg.Op != "" {
			op, err := romodify.ParseOpcode(stepCfg.Op)
			if err != nil {
				return Scenario{}, fmt.Errorf("scenario %s step %d: %w", cfg.Name, i, err)
			}
			step.Data = []byte{byte(op)}
		}
		sc.Steps = append(sc.Steps, step)
	}

	return sc, sc.Validate()
}

// ScenarioToConfig is the inverse of ScenarioConfig.Scenario. Steps whose
// data is a single byte are written by opcode name.
func ScenarioToConfig(sc *Scenario) ScenarioConfig {
	cfg := ScenarioConfig{
		Name:               sc.Name,
		Description:        sc.Description,
		OmitProgramAccount: sc.OmitProgramAccount,
		Subject: SubjectConfig{
			Writable:     sc.Subject.Writable,
			Data:         bytesToInts(sc.Subject.Data),
			ForeignOwner: sc.Subject.ForeignOwner,
		},
		FinalByte: sc.FinalByte,
	}
	for _, gate := range sc.Disable {
		cfg.Disable = append(cfg.Disable, gate.Name)
	}
	for _, step := range sc.Steps {
		stepCfg := StepConfig{Expect: string(step.Expect)}
		if op, ok := step.Opcode(); ok && len(step.Data) == 1 {
			text, _ := op.MarshalText()
			stepCfg.Op = string(text)
		} else {
			stepCfg.Data = bytesToInts(step.Data)
		}
		cfg.Steps = append(cfg.Steps, stepCfg)
	}
	return cfg
}

// WriteScenarios encodes scenarios as a YAML suite that ReadScenarios
// accepts.
func WriteScenarios(w io.Writer, scenarios []Scenario) error {
	file := ScenarioFile{}
	for i := range scenarios {
		file.Scenarios = append(file.Scenarios, ScenarioToConfig(&scenarios[i]))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&file); err != nil {
		return err
	}
	return enc.Close()
}

func intsToBytes(ints ByteList) []byte {
	if ints == nil {
		return nil
	}
	b := make([]byte, len(ints))
	for i, v := range ints {
		b[i] = byte(v)
	}
	return b
}

func bytesToInts(b []byte) ByteList {
	if b == nil {
		return nil
	}
	ints := make(ByteList, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return ints
}
