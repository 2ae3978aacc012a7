package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_AggregateSumDirect(t *testing.T) {
	g := New(nil, nil, nil, nil)

	got, err := g.Generate(context.Background(), Request{
		Template: "aggregate-sum",
		Code:     "compute the sum of the array and compare it to the expected total",
		Model:    "direct",
	})
	require.NoError(t, err)

	p := got.Program
	assert.Contains(t, p, "let data = sp1_zkvm::io::read::<Vec<u32>>();")
	assert.Contains(t, p, "let expected_sum = sp1_zkvm::io::read::<u64>();")
	assert.Contains(t, p, "sum = sum.saturating_add(*value as u64);")
	assert.Contains(t, p, "let is_valid = sum == expected_sum;")
	assertInOrder(t, p,
		"sp1_zkvm::io::commit(&count);",
		"sp1_zkvm::io::commit(&expected_sum);",
		"sp1_zkvm::io::commit(&is_valid);",
	)
	assertInOrder(t, got.ProveScript, "stdin.write(data);", "stdin.write(expected_sum);")
}

func TestGenerate_DocumentHashDirect(t *testing.T) {
	g := New(nil, nil, nil, nil)

	got, err := g.Generate(context.Background(), Request{
		Template: "document-integrity",
		Code:     "compare the document hash with the expected one",
	})
	require.NoError(t, err)

	p := got.Program
	assertInOrder(t, p,
		"let document_hash = sp1_zkvm::io::read::<[u8; 32]>();",
		"let expected_hash = sp1_zkvm::io::read::<[u8; 32]>();",
		"let hash_valid = document_hash == expected_hash;",
		"let is_valid = hash_valid;",
		"sp1_zkvm::io::commit(&document_hash);",
		"sp1_zkvm::io::commit(&is_valid);",
	)
	assert.NotContains(t, p, "timestamp")
	assert.NotContains(t, p, "Sha256")
}

func assertInOrder(t *testing.T, s string, parts ...string) {
	t.Helper()
	rest := s
	for _, part := range parts {
		idx := strings.Index(rest, part)
		if !assert.GreaterOrEqual(t, idx, 0, "missing %q in expected order", part) {
			return
		}
		rest = rest[idx+len(part):]
	}
}
