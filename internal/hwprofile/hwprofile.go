// Package hwprofile loads the per-model TDP envelope (min/max TDP, max
// boost) database used to answer the aggregator's MinTDP/MaxTDP/MaxBoost
// queries, merging the AMD, Intel, and DMI-override TOML sources per
// spec §4.12.
package hwprofile

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
	"github.com/ShadowBlip/PowerStation/pkg/log"
)

// Profile is the per-model hardware envelope: min/max sustained TDP and
// max boost headroom, all in watts.
type Profile struct {
	MinTDP   float64 `toml:"min_tdp"`
	MaxTDP   float64 `toml:"max_tdp"`
	MaxBoost float64 `toml:"max_boost"`
}

type entry struct {
	ModelName string  `toml:"model_name"`
	MinTDP    float64 `toml:"min_tdp"`
	MaxTDP    float64 `toml:"max_tdp"`
	MaxBoost  float64 `toml:"max_boost"`
}

type database struct {
	Profile []entry `toml:"profile"`
}

// Sources are the three files merged by LoadMerged, in priority order
// (later wins on equal model name): AMD APU database, Intel APU
// database, DMI overrides.
var Sources = []string{
	"amd_apu_database.toml",
	"intel_apu_database.toml",
	"dmi_overrides_apu_database.toml",
}

// LoadMerged reads Sources from dir, in order, merging entries keyed by
// model_name with later files overriding earlier ones on a name
// collision. A source file that does not exist is skipped silently —
// a host need not have all three databases installed.
func LoadMerged(dir string) (map[string]Profile, error) {
	merged := map[string]Profile{}

	for _, name := range Sources {
		path := filepath.Join(dir, name)
		var db database
		meta, err := toml.DecodeFile(path, &db)
		if err != nil {
			if isNotExist(err) {
				continue
			}
			return nil, errdefs.IOErrorf("decoding %s: %v", path, err)
		}
		_ = meta

		for _, e := range db.Profile {
			merged[e.ModelName] = Profile{
				MinTDP:   e.MinTDP,
				MaxTDP:   e.MaxTDP,
				MaxBoost: e.MaxBoost,
			}
		}
		log.Logger.Debugw("loaded hardware profile database", "path", path, "entries", len(db.Profile))
	}

	return merged, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// MatchHost resolves the profile for the current host: first by DMI
// product name, then by CPU model name, then falling back to the DMI
// product name as-is with a zero-valued profile, per spec §4.12.
func MatchHost(profiles map[string]Profile, dmiProductName, cpuModelName string) (Profile, string) {
	if p, ok := profiles[dmiProductName]; ok {
		return p, dmiProductName
	}
	if p, ok := profiles[cpuModelName]; ok {
		return p, cpuModelName
	}
	return Profile{}, dmiProductName
}
