package config

// Weldfile represents the structure of the weld.yaml configuration file.
type Weldfile struct {
	Version                   string   `yaml:"version"`
	Module                    string   `yaml:"module"`
	Output                    string   `yaml:"output"`
	References                []string `yaml:"references"`
	ReferenceDirs             []string `yaml:"referenceDirs"`
	SearchPaths               []string `yaml:"searchPaths"`
	Unmanaged                 []string `yaml:"unmanaged"`
	Unmanaged32               []string `yaml:"unmanaged32"`
	Unmanaged64               []string `yaml:"unmanaged64"`
	Include                   []string `yaml:"include"`
	Exclude                   []string `yaml:"exclude"`
	Preload                   []string `yaml:"preload"`
	CreateTemporaryAssemblies bool     `yaml:"createTemporaryAssemblies"`
	DisableCompression        bool     `yaml:"disableCompression"`
	StageResources            bool     `yaml:"stageResources"`
	StagingDir                string   `yaml:"stagingDir"`
}
