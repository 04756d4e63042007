// internal/appconfig/profiles.go
package appconfig

import "strings"

// ProfileName identifies a parameter preset.
type ProfileName string

const (
	ProfileGenericChat ProfileName = "generic"
	ProfileFactChecker ProfileName = "fact_checker"
	ProfileCreative    ProfileName = "creative"
	ProfileAccuracy    ProfileName = "accuracy"
)

// ParamsForProfile selects a parameter preset by name.
// Behavior:
//   - empty string => Generic Chat (default)
//   - unknown string => Generic Chat (default)
func ParamsForProfile(name string) Parameters {
	switch ProfileName(strings.ToLower(strings.TrimSpace(name))) {
	case ProfileAccuracy:
		return Parameters{
			Temperature:   ptrFloat(0.1),
			TopP:          ptrFloat(0.95),
			MinP:          ptrFloat(0.1),
			NumPredict:    ptrInt(512),
			RepeatPenalty: ptrFloat(1.0),
		}
	case ProfileFactChecker:
		return Parameters{
			Temperature:   ptrFloat(0.2),
			TopP:          ptrFloat(0.6),
			TopK:          ptrInt(20),
			MinP:          ptrFloat(0.1),
			TypicalP:      ptrFloat(0.8),
			RepeatLastN:   ptrInt(128),
			RepeatPenalty: ptrFloat(1.05),
			NumPredict:    ptrInt(64),
		}
	case ProfileCreative:
		return Parameters{
			Temperature:      ptrFloat(1.5),
			TopP:             ptrFloat(1.0),
			MinP:             ptrFloat(0.15), // strict floor keeps high temperature coherent
			TypicalP:         ptrFloat(0.9),
			RepeatLastN:      ptrInt(256),
			RepeatPenalty:    ptrFloat(1.05),
			PresencePenalty:  ptrFloat(0.5),
			FrequencyPenalty: ptrFloat(0.2),
			NumPredict:       ptrInt(2048),
		}
	default:
		return Parameters{
			Temperature:   ptrFloat(0.8),
			TopP:          ptrFloat(1.0),
			MinP:          ptrFloat(0.08),
			RepeatLastN:   ptrInt(64),
			RepeatPenalty: ptrFloat(1.1),
			NumPredict:    ptrInt(1024),
		}
	}
}

// ChatParameters merges the explicit parameters over the selected profile.
func (c Config) ChatParameters() Parameters {
	return mergeParams(ParamsForProfile(c.Profile), c.Parameters)
}

func mergeParams(base, override Parameters) Parameters {
	if override.TopK != nil {
		base.TopK = override.TopK
	}
	if override.TopP != nil {
		base.TopP = override.TopP
	}
	if override.MinP != nil {
		base.MinP = override.MinP
	}
	if override.TypicalP != nil {
		base.TypicalP = override.TypicalP
	}
	if override.RepeatLastN != nil {
		base.RepeatLastN = override.RepeatLastN
	}
	if override.Temperature != nil {
		base.Temperature = override.Temperature
	}
	if override.NumPredict != nil {
		base.NumPredict = override.NumPredict
	}
	if override.RepeatPenalty != nil {
		base.RepeatPenalty = override.RepeatPenalty
	}
	if override.PresencePenalty != nil {
		base.PresencePenalty = override.PresencePenalty
	}
	if override.FrequencyPenalty != nil {
		base.FrequencyPenalty = override.FrequencyPenalty
	}
	return base
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }
