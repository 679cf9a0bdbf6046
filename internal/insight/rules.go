package insight

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk shape of the cross-sell rule table.
type ruleFile struct {
	Rules []CrossSellRule `yaml:"rules"`
}

// LoadRules reads the cross-sell rule table from a YAML file. An empty path
// returns no rules; the engine then relies on peer-adoption signals alone.
func LoadRules(path string) ([]CrossSellRule, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "insight: read rules file %s", path)
	}

	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "insight: parse rules file %s", path)
	}

	for i, r := range f.Rules {
		if r.If == "" || r.Suggest == "" {
			return nil, eris.Errorf("insight: rule %d missing if/suggest", i)
		}
		if r.If == r.Suggest {
			return nil, eris.Errorf("insight: rule %d suggests its own trigger %q", i, r.If)
		}
	}

	return f.Rules, nil
}
