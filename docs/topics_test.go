package docs

import (
	"bufio"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// TestTopics keeps the readme index and the topic files in sync: every topic
// listed in readme.md must load, and every topic file must be listed.
func TestTopics(t *testing.T) {
	file, err := os.Open("readme.md")
	require.NoError(t, err)
	defer file.Close()

	var listed []string
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if m := topicRegex.FindStringSubmatch(scanner.Text()); len(m) > 1 {
			listed = append(listed, strings.TrimSpace(m[1]))
		}
	}
	require.NoError(t, scanner.Err())
	require.NotEmpty(t, listed)

	for _, name := range listed {
		_, err := Topic(name)
		assert.NoError(t, err, "topic %q listed in readme.md does not load", name)
	}

	all, err := All()
	require.NoError(t, err)
	assert.ElementsMatch(t, listed, all, "readme.md out of sync with topic files")
}

// TestTopicStructure parses every topic with goldmark and requires a
// top-level heading.
func TestTopicStructure(t *testing.T) {
	all, err := All()
	require.NoError(t, err)

	for _, name := range all {
		t.Run(name, func(t *testing.T) {
			content, err := Topic(name)
			require.NoError(t, err)

			source := []byte(content)
			root := goldmark.DefaultParser().Parse(text.NewReader(source))
			var found bool
			ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
				if h, ok := n.(*ast.Heading); ok && entering && h.Level == 1 {
					found = true
					return ast.WalkStop, nil
				}
				return ast.WalkContinue, nil
			})
			assert.True(t, found, "topic %q has no top-level heading", name)
		})
	}
}

func TestTopicStar(t *testing.T) {
	doc, err := Topic("*")
	require.NoError(t, err)
	assert.Contains(t, doc, "# PnL")
	assert.Contains(t, doc, "# Market data")
}

func TestTopicUnknown(t *testing.T) {
	_, err := Topic("nonexistent")
	assert.Error(t, err)
}
