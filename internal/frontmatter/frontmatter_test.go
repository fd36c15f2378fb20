package frontmatter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	header, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, header)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsHeaderAndBody(t *testing.T) {
	input := []byte("---\nlayout: post\n---\n# Title\n")

	header, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("layout: post\n"), header)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\nlayout: post\n# Title\n")

	_, _, had, err := Split(input)
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_ClosingDelimiterAtEOF_SplitsWithEmptyBody(t *testing.T) {
	input := []byte("---\nlayout: post\n---")

	header, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("layout: post\n"), header)
	require.Empty(t, body)
}

func TestSplit_CRLF_SplitsHeaderAndBody(t *testing.T) {
	input := []byte("---\r\nlayout: post\r\n---\r\n# Title\r\n")

	header, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("layout: post\r\n"), header)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyHeaderBlock_SplitsAsHadWithEmptyHeader(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	header, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, header)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestDecode_TypedFields(t *testing.T) {
	fm, err := Decode([]byte("layout: post\ntitle: Hello\ndate: 2023-03-16\ndraft: true\ntags: [go, blog]\nauthor: jane\n"))
	require.NoError(t, err)

	require.Equal(t, "post", fm.Layout)
	require.Equal(t, "Hello", fm.Title)
	require.Equal(t, time.Date(2023, 3, 16, 0, 0, 0, 0, time.UTC), fm.Date)
	require.True(t, fm.Draft)
	require.Equal(t, []string{"go", "blog"}, fm.Tags)
	require.Equal(t, "jane", fm.Extra["author"])
	require.NotContains(t, fm.Extra, "layout")
}

func TestDecode_DateWithTimestamp(t *testing.T) {
	fm, err := Decode([]byte("date: 2023-03-16 08:30:00\n"))
	require.NoError(t, err)
	require.Equal(t, time.Date(2023, 3, 16, 8, 30, 0, 0, time.UTC), fm.Date)
}

func TestDecode_UnparsableDate_ReturnsError(t *testing.T) {
	_, err := Decode([]byte("date: sometime soon\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unparsable date")
}

func TestDecode_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := Decode([]byte("title: [unterminated\n"))
	require.Error(t, err)
}

func TestDecode_SingleStringTag(t *testing.T) {
	fm, err := Decode([]byte("tags: android\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"android"}, fm.Tags)
}

func TestParse_NoHeader_YieldsZeroFrontMatter(t *testing.T) {
	fm, body, err := Parse([]byte("plain body\n"))
	require.NoError(t, err)
	require.Empty(t, fm.Layout)
	require.NotNil(t, fm.Extra)
	require.Equal(t, []byte("plain body\n"), body)
}
