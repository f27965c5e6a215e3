package excel

import "time"

// ReaderConfig holds settings for a spreadsheet data source.
type ReaderConfig struct {
	FilePath string        `json:"file_path"`
	Sheet    string        `json:"sheet"`    // empty uses the first sheet
	Debounce time.Duration `json:"debounce"` // watcher quiet period
}

// DefaultReaderConfig returns sensible defaults for path.
func DefaultReaderConfig(path string) ReaderConfig {
	return ReaderConfig{
		FilePath: path,
		Debounce: 250 * time.Millisecond,
	}
}
