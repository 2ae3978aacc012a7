package scenario

// Document variants, in priority order: batch > merkle > single.
const (
	VariantBatch  = "batch"
	VariantMerkle = "merkle"
	VariantSingle = "single"

	HashSHA256    = "sha256"
	HashKeccak256 = "keccak256"
)

var documentRules = []Rule{
	rule("hash", `hash|digest|checksum|sha256|sha3|keccak`, ""),
	rule("signature", `signature|sign|verify|authenticate`, ""),
	rule("timestamp", `timestamp|time|date|created|modified`, ""),
	rule("merkle", `merkle|tree|root|proof|branch`, ""),
	rule("batch", `batch|multiple|array|list|documents`, ""),
	rule("metadata", `metadata|properties|attributes|info`, ""),
}

var documentVariants = []Rule{
	rule(VariantBatch, `batch|multiple|array|list|documents`, ""),
	rule(VariantMerkle, `merkle|tree|root|proof|branch`, ""),
}

var keccakPattern = rule(HashKeccak256, `sha3|keccak`, "")

var documentTypes = map[string]string{
	"document_hash": "[u8; 32]",
	"expected_hash": "[u8; 32]",
	"timestamp":     "u64",
	"leaf":          "[u8; 32]",
	"proof_path":    "Vec<[u8; 32]>",
	"root":          "[u8; 32]",
	"leaf_index":    "u32",
	"doc_count":     "u32",
	"merkle_root":   "[u8; 32]",
	"documents":     "Vec<([u8; 32], u64)>",
}

func documentIntegrity() *Scenario {
	return &Scenario{
		Descriptor: Descriptor{
			ID:          "document-integrity",
			Name:        "Document Verification",
			Description: "Verify document authenticity and integrity",
			Example:     "Prove document hasn't been tampered with using cryptographic hashes",
		},
		Parse:      parseDocument,
		Program:    documentProgram,
		inputTypes: documentTypes,
	}
}

func parseDocument(raw string) Features {
	tags, _ := matchRules(documentRules, raw)

	f := Features{
		Tags:          tags,
		Variant:       firstMatch(documentVariants, raw, VariantSingle),
		HashAlgorithm: HashSHA256,
	}
	if keccakPattern.Pattern.MatchString(raw) {
		f.HashAlgorithm = HashKeccak256
	}

	switch f.Variant {
	case VariantBatch:
		f.Inputs = []string{"doc_count", "merkle_root", "documents"}
	case VariantMerkle:
		f.Inputs = []string{"leaf", "proof_path", "root", "leaf_index"}
	default:
		f.Inputs = []string{"document_hash", "expected_hash"}
		if f.Has("timestamp") {
			f.Inputs = append(f.Inputs, "timestamp")
		}
	}
	return f
}

func documentProgram(f Features) string {
	switch f.Variant {
	case VariantBatch:
		return batchProgram(f)
	case VariantMerkle:
		return merkleProgram(f)
	default:
		return singleDocumentProgram(f)
	}
}

func singleDocumentProgram(f Features) string {
	p := program{reads: readsFor(f.Inputs, documentTypes)}

	p.logic = append(p.logic, "let hash_valid = document_hash == expected_hash;")
	checks := []string{"hash_valid"}
	p.commits = []string{"document_hash"}

	if f.HasInput("timestamp") {
		p.consts = timestampConsts()
		p.logic = append(p.logic, "let time_valid = timestamp >= MIN_TIMESTAMP && timestamp <= MAX_TIMESTAMP;")
		checks = append(checks, "time_valid")
		p.commits = append(p.commits, "timestamp")
	}
	p.logic = append(p.logic, "let is_valid = "+allOf(checks...)+";")

	return p.render()
}

func batchProgram(f Features) string {
	p := program{
		imports: hasherImports(f.HashAlgorithm),
		consts:  timestampConsts(),
		reads:   readsFor(f.Inputs, documentTypes),
	}

	p.logic = append(p.logic, newHasher(f.HashAlgorithm), "let mut timestamps_valid = true;", "")
	p.logic = append(p.logic,
		"for (doc_hash, timestamp) in documents.iter() {",
		"    if *timestamp < MIN_TIMESTAMP || *timestamp > MAX_TIMESTAMP {",
		"        timestamps_valid = false;",
		"    }",
		"    hasher.update(doc_hash);",
		"    hasher.update(&timestamp.to_le_bytes());",
		"}",
		"",
	)
	p.logic = append(p.logic, finalizeInto("computed_root", f.HashAlgorithm)...)
	p.logic = append(p.logic,
		"let count_valid = documents.len() as u32 == doc_count;",
		"let is_valid = "+allOf("count_valid", "timestamps_valid", "computed_root == merkle_root")+";",
	)

	p.commits = []string{"doc_count", "merkle_root"}
	return p.render()
}

func merkleProgram(f Features) string {
	p := program{
		imports: hasherImports(f.HashAlgorithm),
		reads:   readsFor(f.Inputs, documentTypes),
	}

	p.logic = append(p.logic,
		"let mut current_hash = leaf;",
		"let mut index = leaf_index;",
		"",
		"for sibling in proof_path.iter() {",
		"    "+newHasher(f.HashAlgorithm),
		"",
		"    // Low bit of the index decides which side the current node is on",
		"    if index & 1 == 0 {",
		"        hasher.update(&current_hash);",
		"        hasher.update(sibling);",
		"    } else {",
		"        hasher.update(sibling);",
		"        hasher.update(&current_hash);",
		"    }",
		"",
	)
	for _, line := range finalizeInto("next_hash", f.HashAlgorithm) {
		p.logic = append(p.logic, "    "+line)
	}
	p.logic = append(p.logic,
		"    current_hash = next_hash;",
		"    index >>= 1;",
		"}",
		"",
		"let is_valid = current_hash == root;",
	)

	p.commits = []string{"root", "leaf", "leaf_index"}
	return p.render()
}

func timestampConsts() []string {
	return []string{
		"const MIN_TIMESTAMP: u64 = " + minTimestamp + "; // 2024-01-01",
		"const MAX_TIMESTAMP: u64 = " + maxTimestamp + "; // 2030-01-01",
	}
}

func hasherImports(alg string) []string {
	if alg == HashKeccak256 {
		return []string{"use tiny_keccak::{Hasher, Keccak};"}
	}
	return []string{"use sha2::{Digest, Sha256};"}
}

func newHasher(alg string) string {
	if alg == HashKeccak256 {
		return "let mut hasher = Keccak::v256();"
	}
	return "let mut hasher = Sha256::new();"
}

func finalizeInto(name, alg string) []string {
	if alg == HashKeccak256 {
		return []string{
			"let mut " + name + " = [0u8; 32];",
			"hasher.finalize(&mut " + name + ");",
		}
	}
	return []string{"let " + name + ": [u8; 32] = hasher.finalize().into();"}
}
