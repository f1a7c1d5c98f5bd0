package requirements

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `# Core AI stack
openai>=1.0.0
tiktoken>=0.5.0

# Data handling
numpy>=1.24.0
python-dotenv>=1.0.0  # loads .env files
`

func TestParse(t *testing.T) {
	file, err := Parse(strings.NewReader(sampleManifest))
	require.NoError(t, err)
	require.Len(t, file.Specifiers, 4)

	assert.Equal(t, "openai", file.Specifiers[0].Normalized)
	assert.Equal(t, 2, file.Specifiers[0].Line)
	assert.Equal(t, OpGreaterEqual, file.Specifiers[0].Operator)
	assert.Equal(t, "1.0.0", file.Specifiers[0].Version.String())

	// Inline comment is stripped
	assert.Equal(t, "python-dotenv", file.Specifiers[3].Normalized)
	assert.Equal(t, 7, file.Specifiers[3].Line)
}

func TestParse_Empty(t *testing.T) {
	file, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, file.Specifiers)

	file, err = Parse(strings.NewReader("# comments only\n\n   \n"))
	require.NoError(t, err)
	assert.Empty(t, file.Specifiers)
}

func TestParse_ReportsAllBadLines(t *testing.T) {
	manifest := strings.Join([]string{
		"openai>=1.0.0",
		"broken line",
		"numpy>=1.24.0",
		"also~=broken",
	}, "\n")

	_, err := Parse(strings.NewReader(manifest))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "line 4")
	assert.ErrorIs(t, err, ErrInvalidOperator)
}

func TestParse_LineNumbersCountComments(t *testing.T) {
	manifest := "# header\n\nbad==version==here\n"
	_, err := Parse(strings.NewReader(manifest))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestValidate_CleanManifest(t *testing.T) {
	file, err := Parse(strings.NewReader(sampleManifest))
	require.NoError(t, err)
	assert.NoError(t, file.Validate())
}

func TestValidate_MergesAgreeingDuplicates(t *testing.T) {
	manifest := "openai>=1.0.0\nopenai!=1.2.0\nOpenAI<2.0.0\n"
	file, err := Parse(strings.NewReader(manifest))
	require.NoError(t, err)
	require.NoError(t, file.Validate())

	cs := file.Constraints()["openai"]
	require.Len(t, cs, 3, "duplicates merge under the normalized name")
	assert.True(t, cs.Match(MustVersion("1.5.0")))
	assert.False(t, cs.Match(MustVersion("1.2.0")))
	assert.False(t, cs.Match(MustVersion("2.0.0")))
}

func TestValidate_ConflictingDuplicates(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"two pins", "faiss-cpu==1.7.4\nfaiss-cpu==1.8.0\n"},
		{"pin and exclusion", "numpy==1.24.0\nnumpy!=1.24.0\n"},
		{"disjoint bounds", "tiktoken<0.5.0\ntiktoken>=0.5.0\n"},
		{"normalized collision", "python-dotenv==1.0.0\npython_dotenv==2.0.0\n"},
		{"three-way squeeze", "openai>=2.0\nopenai!=2.0\nopenai<=2.0.0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Parse(strings.NewReader(tt.manifest))
			require.NoError(t, err)

			err = file.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConflictingConstraints)
		})
	}
}

func TestNames(t *testing.T) {
	manifest := "zlib-ng>=1.0\nopenai>=1.0\nOpenAI<2.0\nnumpy>=1.24\n"
	file, err := Parse(strings.NewReader(manifest))
	require.NoError(t, err)

	assert.Equal(t, []string{"numpy", "openai", "zlib-ng"}, file.Names())
}

func TestEncode(t *testing.T) {
	manifest := "# header\nOpenAI >= 1.0.0\npython_dotenv==1.0\n"
	file, err := Parse(strings.NewReader(manifest))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, file.Encode(&buf))
	assert.Equal(t, "openai>=1.0.0\npython-dotenv==1.0\n", buf.String())
}

func TestEncode_RoundTrip(t *testing.T) {
	file, err := Parse(strings.NewReader(sampleManifest))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, file.Encode(&buf))

	again, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, again.Specifiers, len(file.Specifiers))
	for i := range file.Specifiers {
		assert.Equal(t, file.Specifiers[i].String(), again.Specifiers[i].String())
	}
}
