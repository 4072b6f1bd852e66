package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// LoadMode controls how errors are handled during catalog loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Definition is one block entry declared in a CUE catalog file.
type Definition struct {
	Label       string // CUE field label, stable across loads
	Name        string
	Description string
}

// LoadResult contains the results of loading a block catalog directory.
type LoadResult struct {
	Definitions []Definition
	CUEValue    cue.Value // The raw CUE value for additional processing
	FileCount   int       // Number of CUE files found
}

// LoadError represents an error that occurred during catalog loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	// Block definition errors
	ErrCodeBlockName  = "E101" // Missing or invalid block name
	ErrCodeBlockField = "E102" // Invalid block field type
)

// LoadCatalog loads block definitions from CUE files in dir.
//
// Catalog files declare one struct per block under the "block" field:
//
//	block: checkout: {
//		name:        "checkout"
//		description: "shopping cart checkout flow"
//	}
//
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadCatalog(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	// Find CUE files
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	// Load CUE instances
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	// Build value from instance
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	// Extract block definitions
	blocksVal := value.LookupPath(cue.ParsePath("block"))
	if blocksVal.Exists() {
		iter, iterErr := blocksVal.Fields()
		if iterErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating blocks: %v", iterErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
		} else {
			for iter.Next() {
				def, loadErr := compileBlock(iter.Label(), iter.Value())
				if loadErr != nil {
					errs = append(errs, loadErr)
					if mode == LoadModeFailFast {
						return result, errs
					}
					continue
				}
				result.Definitions = append(result.Definitions, *def)
			}
		}
	}

	// Check if we found anything
	if len(result.Definitions) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no block definitions found in catalog"})
	}

	return result, errs
}

// compileBlock parses one CUE block struct into a Definition.
func compileBlock(label string, v cue.Value) (*Definition, *LoadError) {
	if err := v.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("block %s: %v", label, err), Pos: v.Pos()}
	}

	def := &Definition{Label: label}

	// name (required)
	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &LoadError{Code: ErrCodeBlockName, Message: fmt.Sprintf("block %s: name is required", label), Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBlockField, Message: fmt.Sprintf("block %s: name must be a string: %v", label, err), Pos: nameVal.Pos()}
	}
	if name == "" {
		return nil, &LoadError{Code: ErrCodeBlockName, Message: fmt.Sprintf("block %s: name must not be empty", label), Pos: nameVal.Pos()}
	}
	def.Name = name

	// description (optional)
	descVal := v.LookupPath(cue.ParsePath("description"))
	if descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBlockField, Message: fmt.Sprintf("block %s: description must be a string: %v", label, err), Pos: descVal.Pos()}
		}
		def.Description = desc
	}

	return def, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
