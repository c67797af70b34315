// AngelaMos | 2026
// profile.go

package account

import (
	"encoding/json"
	"fmt"
)

type Gender int

const (
	GenderMale Gender = iota
	GenderFemale
	GenderCustom
)

var genderNames = map[Gender]string{
	GenderMale:   "male",
	GenderFemale: "female",
	GenderCustom: "custom",
}

func (g Gender) String() string {
	if name, ok := genderNames[g]; ok {
		return name
	}
	return genderNames[GenderCustom]
}

func ParseGender(v string) (Gender, error) {
	for g, name := range genderNames {
		if name == v {
			return g, nil
		}
	}
	return GenderCustom, fmt.Errorf("unknown gender %q", v)
}

func (g Gender) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

func (g *Gender) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseGender(name)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

type Profile struct {
	Avatar      string `db:"avatar"      json:"avatar"`
	Description string `db:"description" json:"description"`
	State       string `db:"state"       json:"state"`
	Gender      Gender `db:"gender"      json:"gender"`
}

func DefaultProfile() Profile {
	return Profile{Gender: GenderCustom}
}
