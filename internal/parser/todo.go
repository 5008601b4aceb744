package parser

import "bytes"

// TodoMarker is the placeholder that marks a model file as unfinished.
const TodoMarker = "{{TODO}}"

// HasTodoMarker reports whether content contains the TODO placeholder.
func HasTodoMarker(content []byte) bool {
	return bytes.Contains(content, []byte(TodoMarker))
}
