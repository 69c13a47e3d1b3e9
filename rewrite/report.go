package rewrite

// FileReport lists what was generated for one input file
type FileReport struct {
	Input   string         `yaml:"input"`
	Output  string         `yaml:"output,omitempty"`
	Digest  string         `yaml:"digest"`
	Records []RecordReport `yaml:"records,omitempty"`
	Methods []MethodReport `yaml:"methods,omitempty"`
}

// RecordReport describes one augmented struct
type RecordReport struct {
	Name       string   `yaml:"name"`
	Storage    string   `yaml:"storage"`
	Properties []string `yaml:"properties"`
}

// MethodReport describes one split method
type MethodReport struct {
	Receiver   string `yaml:"receiver"`
	Property   string `yaml:"property"`
	Original   string `yaml:"original"`
	Prefetch   string `yaml:"prefetch"`
	CachedRead string `yaml:"cached_read"`
}

// Empty reports whether nothing was generated
func (r FileReport) Empty() bool {
	return len(r.Records) == 0 && len(r.Methods) == 0
}
