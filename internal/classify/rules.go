package classify

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	apperrors "ruccli/internal/errors"
)

// Rules is the classifier configuration: description patterns that select a
// record, keywords that veto a selection, and activity-code prefixes that
// select a record on their own.
type Rules struct {
	// Include holds regular expressions matched against the normalized description.
	Include []string `yaml:"include" validate:"dive,required"`
	// Exclude holds literal keywords; any occurrence rejects a text match.
	Exclude []string `yaml:"exclude" validate:"dive,required"`
	// CodePrefixes holds CIIU code prefixes.
	CodePrefixes []string `yaml:"code_prefixes" validate:"dive,required"`
}

// DefaultRules returns the book-seller rules.
func DefaultRules() Rules {
	return Rules{
		Include: []string{
			`venta.*libro`,
			`comercializacion.*libro`,
			`libreria`,
			`libros`,
			`distribucion.*libro`,
			`edicion.*libro`,
			`suministro.*libro`,
			`tienda.*libro`,
		},
		Exclude: []string{
			"contabilidad",
			"contable",
			"tenedur",
			"auditori",
			"fiscal",
			"tribut",
			"impuesto",
			"nomina",
			"nómina",
			"balance",
			"financier",
			"estados financieros",
			"cuentas",
			"registro contable",
		},
		CodePrefixes: []string{"G4761", "G476100", "G476101", "G476102", "5811", "58110"},
	}
}

// Validate checks that the rules can select something and that every include
// pattern compiles.
func (r Rules) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return apperrors.NewValidationError("invalid classification rules").WithContext("error", err.Error())
	}
	if len(r.Include) == 0 && len(r.CodePrefixes) == 0 {
		return apperrors.NewValidationError("classification rules need at least one include pattern or code prefix")
	}
	for _, p := range r.Include {
		if _, err := regexp.Compile(p); err != nil {
			return apperrors.NewValidationError(fmt.Sprintf("invalid include pattern %q", p)).
				WithContext("error", err.Error())
		}
	}
	return nil
}

// LoadRules reads rules from a YAML file. Lists missing from the file keep
// their default value; an empty path returns DefaultRules.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Rules{}, apperrors.NewNotFoundError(path).WithContext("path", path)
		}
		return Rules{}, apperrors.NewStorageError("failed to read rules file", err).WithContext("path", path)
	}

	var override Rules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Rules{}, apperrors.NewConfigError("failed to parse rules file", err).WithContext("path", path)
	}
	if override.Include != nil {
		rules.Include = override.Include
	}
	if override.Exclude != nil {
		rules.Exclude = override.Exclude
	}
	if override.CodePrefixes != nil {
		rules.CodePrefixes = override.CodePrefixes
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}
