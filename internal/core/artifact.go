package core

// Artifact is the unit returned to callers and stored in the result cache.
type Artifact struct {
	Program      string `json:"program"`
	ProveScript  string `json:"proveScript"`
	VerifyScript string `json:"verifyScript"`
	EnvExample   string `json:"envExample"`
	TestScript   string `json:"testScript"`
	Instructions string `json:"instructions"`

	Model          string `json:"model,omitempty"`
	Enhanced       bool   `json:"enhanced"`
	StructureValid *bool  `json:"structureValid,omitempty"`
	Error          string `json:"error,omitempty"`
	FromCache      bool   `json:"fromCache,omitempty"`
}

// Clone returns an independent copy of the artifact.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	c := *a
	if a.StructureValid != nil {
		v := *a.StructureValid
		c.StructureValid = &v
	}
	return &c
}
