package data

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/maps"

	"github.com/OpenZilia/parsemap-test-harness/framework/helpers"
)

//go:embed data-files
var dataFilesRoot embed.FS

const dataBasePath = "data-files"

// SourceInfo is the content of a data file after constants and parameters have been
// substituted. A file with parameters produces one SourceInfo per combination of parameters.
type SourceInfo struct {
	FilePath string
	BaseName string
	Params   map[string]ldvalue.Value
	Data     []byte
}

func (s SourceInfo) ParseInto(target interface{}) error {
	if err := ParseJSONOrYAML(s.Data, target); err != nil {
		return fmt.Errorf("error parsing %q %s: %w", s.BaseName, s.ParamsString(), err)
	}
	return nil
}

// ParamsString describes the parameters in a stable order, for use in test names.
func (s SourceInfo) ParamsString() string {
	if len(s.Params) == 0 {
		return ""
	}
	names := helpers.Sorted(maps.Keys(s.Params))
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+"="+s.Params[k].String())
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// LoadDataFile reads an embedded data file, relative to data/data-files, and expands its
// substitutions.
func LoadDataFile(filePath string) ([]SourceInfo, error) {
	data, err := dataFilesRoot.ReadFile(dataBasePath + "/" + filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", filePath, err)
	}
	sources, err := expandSubstitutions(data)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", filePath, err)
	}
	for i := range sources {
		sources[i].FilePath = filePath
		sources[i].BaseName = path.Base(filePath)
	}
	return sources, nil
}
