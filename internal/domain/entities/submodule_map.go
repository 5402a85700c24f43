package entities

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// SubmoduleMap maps paths relative to a working tree root to the descriptors
// of the repositories nested there. Paths keep the order in which they were
// discovered, which is depth-first index order for Git.
type SubmoduleMap struct {
	paths []string
	infos map[string]VcsInfo
}

// NewSubmoduleMap creates an empty mapping.
func NewSubmoduleMap() *SubmoduleMap {
	return &SubmoduleMap{infos: make(map[string]VcsInfo)}
}

// Set stores info under path. Re-setting an existing path keeps its position.
func (m *SubmoduleMap) Set(path string, info VcsInfo) {
	if m.infos == nil {
		m.infos = make(map[string]VcsInfo)
	}
	if _, ok := m.infos[path]; !ok {
		m.paths = append(m.paths, path)
	}
	m.infos[path] = info
}

// Get returns the descriptor stored under path.
func (m *SubmoduleMap) Get(path string) (VcsInfo, bool) {
	if m == nil {
		return EmptyVcsInfo, false
	}
	info, ok := m.infos[path]
	return info, ok
}

// Paths returns the stored paths in discovery order.
func (m *SubmoduleMap) Paths() []string {
	if m == nil {
		return []string{}
	}
	return append([]string{}, m.paths...)
}

// Len returns the number of stored paths.
func (m *SubmoduleMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.paths)
}

// ToMap returns an unordered copy of the mapping.
func (m *SubmoduleMap) ToMap() map[string]VcsInfo {
	result := make(map[string]VcsInfo, m.Len())
	for _, p := range m.Paths() {
		result[p] = m.infos[p]
	}
	return result
}

// MarshalYAML encodes the mapping in discovery order.
func (m *SubmoduleMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range m.Paths() {
		value := &yaml.Node{}
		if err := value.Encode(m.infos[p]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: p}, value)
	}
	return node, nil
}

// UnmarshalYAML decodes a mapping, keeping the document order.
func (m *SubmoduleMap) UnmarshalYAML(value *yaml.Node) error {
	*m = *NewSubmoduleMap()
	for i := 0; i+1 < len(value.Content); i += 2 {
		var info VcsInfo
		if err := value.Content[i+1].Decode(&info); err != nil {
			return err
		}
		m.Set(value.Content[i].Value, info)
	}
	return nil
}

// MarshalJSON encodes the mapping as a JSON object in discovery order.
func (m *SubmoduleMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range m.Paths() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.infos[p])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
