package source

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sniffLen is how much of a JSON artifact is read to find its "kind".
const sniffLen = 512

// ScanDir lists the transaction files and model artifacts directly inside dir.
// Transaction files are CSVs; artifacts are JSON files whose "kind" field (or,
// failing that, file name) names a supported model. Unrelated files are skipped.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []DiscoveredFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		kind := classify(path, e.Name())
		if kind == KindUnknown {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, DiscoveredFile{
			Path: path,
			Name: e.Name(),
			Kind: kind,
			Size: info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Kind != files[j].Kind {
			return files[i].Kind < files[j].Kind
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FirstOfKind returns the path of the first file of kind k, or "".
func FirstOfKind(files []DiscoveredFile, k FileKind) string {
	for _, f := range files {
		if f.Kind == k {
			return f.Path
		}
	}
	return ""
}

func classify(path, name string) FileKind {
	lower := strings.ToLower(name)
	switch filepath.Ext(lower) {
	case ".csv":
		return KindTransactions
	case ".json":
	default:
		return KindUnknown
	}

	head := readHead(path)
	switch {
	case bytes.Contains(head, []byte(`"sarima"`)):
		return KindSARIMA
	case bytes.Contains(head, []byte(`"holtwinters"`)):
		return KindHoltWinters
	case strings.Contains(lower, "sarima"):
		return KindSARIMA
	case strings.Contains(lower, "holt"), strings.Contains(lower, "hw"):
		return KindHoltWinters
	}
	return KindUnknown
}

func readHead(path string) []byte {
	f, err := os.Open(path) //nolint:gosec // scanning a user-chosen directory
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, sniffLen)
	n, _ := f.Read(buf)
	return buf[:n]
}
