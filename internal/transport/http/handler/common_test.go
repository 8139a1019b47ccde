package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSSE(t *testing.T) {
	cases := []struct {
		name  string
		event string
		data  string
		want  string
	}{
		{name: "plain fragment", data: "Hello", want: "data: Hello\n\n"},
		{name: "leading newline", data: "\nthere", want: "data: \ndata: there\n\n"},
		{name: "crlf and bare cr", data: "a\r\nb\rc", want: "data: a\ndata: b\ndata: c\n\n"},
		{name: "literal backslash n stays literal", data: `x\ny`, want: "data: x\\ny\n\n"},
		{name: "named event", event: "done", data: "", want: "event: done\ndata: \n\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, string(formatSSE(tc.event, tc.data)))
		})
	}
}

// decodeSSEData rejoins data fields the way an EventSource client does.
func decodeSSEData(frame string) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSuffix(frame, "\n\n"), "\n") {
		if rest, ok := strings.CutPrefix(line, "data: "); ok {
			lines = append(lines, rest)
		}
	}
	return strings.Join(lines, "\n")
}

func TestFormatSSERoundTripsText(t *testing.T) {
	for _, text := range []string{"one\ntwo", `one\ntwo`, "\n\n", "tail\n"} {
		assert.Equal(t, text, decodeSSEData(string(formatSSE("", text))), "text %q", text)
	}
}
