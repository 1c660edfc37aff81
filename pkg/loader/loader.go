// Package loader discovers test spec files and loads them into validated
// specs.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/flintmc/flint/pkg/spec"
)

// CollectTestFiles returns the test spec files under path, sorted. A file
// path returns itself; a directory is scanned for .json files (extension
// check is case-insensitive), descending into subdirectories only when
// recursive is set.
func CollectTestFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isSpecFile(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", path, err)
		}
	} else {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", path, err)
		}
		for _, e := range entries {
			if !e.IsDir() && isSpecFile(e.Name()) {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func isSpecFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// LoadSpecs loads and fully validates each file, in order. The first
// invalid file fails the whole load with a path-prefixed message.
func LoadSpecs(paths []string) ([]*spec.TestSpec, error) {
	specs := make([]*spec.TestSpec, 0, len(paths))
	for _, path := range paths {
		ts, errs := spec.ValidateFile(path)
		if spec.HasErrors(errs) {
			for _, e := range errs {
				if e.Severity == "error" {
					return nil, fmt.Errorf("%s: %s", path, e.Error())
				}
			}
		}
		specs = append(specs, ts)
	}
	return specs, nil
}

// FilterSpecs keeps the specs matching a boolean expression over {name,
// tags, description}, e.g. `"redstone" in tags and name startsWith "lever"`.
// An empty expression keeps everything.
func FilterSpecs(specs []*spec.TestSpec, expression string) ([]*spec.TestSpec, error) {
	if expression == "" {
		return specs, nil
	}

	env := map[string]interface{}{
		"name":        "",
		"tags":        []string{},
		"description": "",
	}
	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter expression: %w", err)
	}

	var kept []*spec.TestSpec
	for _, ts := range specs {
		tags := ts.Tags
		if tags == nil {
			tags = []string{}
		}
		out, err := expr.Run(program, map[string]interface{}{
			"name":        ts.Name,
			"tags":        tags,
			"description": ts.Description,
		})
		if err != nil {
			return nil, fmt.Errorf("evaluate filter for %q: %w", ts.Name, err)
		}
		if match, ok := out.(bool); ok && match {
			kept = append(kept, ts)
		}
	}
	return kept, nil
}
