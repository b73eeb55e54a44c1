package pipewire

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/linuxmatters/pweq/internal/eq"
)

// DefaultPlaybackNode is the node.name the live-apply path targets
const DefaultPlaybackNode = "eq_playback"

// Object is one entry of the pw-dump JSON array. Older dumps put module
// name and args at the top level, current ones nest them under info; both
// are accepted.
type Object struct {
	ID   int             `json:"id"`
	Type string          `json:"type"`
	Name string          `json:"name,omitempty"`
	Args json.RawMessage `json:"args,omitempty"`
	Info *ObjectInfo     `json:"info,omitempty"`
}

// ObjectInfo holds the info block of a node or module
type ObjectInfo struct {
	Name  string          `json:"name,omitempty"`
	Args  json.RawMessage `json:"args,omitempty"`
	Props map[string]any  `json:"props,omitempty"`
}

// GraphNode is one node of a filter-chain filter.graph
type GraphNode struct {
	Type    string         `json:"type"`
	Name    string         `json:"name"`
	Label   string         `json:"label"`
	Control map[string]any `json:"control"`
}

type moduleArgs struct {
	FilterGraph struct {
		Nodes []GraphNode `json:"nodes"`
	} `json:"filter.graph"`
}

// Dump is a decoded pw-dump snapshot
type Dump []Object

// ParseDump decodes pw-dump output
func ParseDump(data []byte) (Dump, error) {
	var d Dump
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse pw-dump JSON: %w", err)
	}
	return d, nil
}

// IsNode reports whether the object is a node ("PipeWire:Node" or
// "PipeWire:Interface:Node")
func (o Object) IsNode() bool {
	return strings.HasSuffix(o.Type, ":Node")
}

// IsModule reports whether the object is a module
func (o Object) IsModule() bool {
	return strings.HasSuffix(o.Type, ":Module")
}

// Prop returns a string property from info.props
func (o Object) Prop(key string) string {
	if o.Info == nil || o.Info.Props == nil {
		return ""
	}
	switch v := o.Info.Props[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// ModuleName returns the module name from either dump layout
func (o Object) ModuleName() string {
	if o.Name != "" {
		return o.Name
	}
	if o.Info != nil {
		return o.Info.Name
	}
	return ""
}

// GraphNodes decodes filter.graph.nodes from the module args. Args given as
// a string are tried as strict JSON first and then as SPA-JSON.
func (o Object) GraphNodes() ([]GraphNode, error) {
	raw := o.Args
	if len(raw) == 0 && o.Info != nil {
		raw = o.Info.Args
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		raw = json.RawMessage(asString)
	}

	var args moduleArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		converted, spaErr := SPAToJSON(string(raw))
		if spaErr != nil {
			return nil, fmt.Errorf("module %d: failed to decode args: %w", o.ID, spaErr)
		}
		args = moduleArgs{}
		if err := json.Unmarshal(converted, &args); err != nil {
			return nil, fmt.Errorf("module %d: failed to decode args: %w", o.ID, err)
		}
	}
	return args.FilterGraph.Nodes, nil
}

// FindNode returns the id of the first node whose node.name is name
func (d Dump) FindNode(name string) (int, bool) {
	for _, o := range d {
		if o.IsNode() && o.Prop("node.name") == name {
			return o.ID, true
		}
	}
	return 0, false
}

// DeviceName returns the description of the last audio output stream, or
// "Unknown" when the graph has none.
func (d Dump) DeviceName() string {
	name := "Unknown"
	for _, o := range d {
		if o.IsNode() && o.Prop("media.class") == "Stream/Output/Audio" {
			if desc := o.Prop("node.description"); desc != "" {
				name = desc
			}
		}
	}
	return name
}

// ActiveFilters reads the bands of every loaded filter-chain module. Each
// builtin "eq" node contributes its control entries in ascending key order
// as enabled peaking bands. A module whose args cannot be decoded is logged
// and skipped; a malformed eq control value is an error.
func (d Dump) ActiveFilters() ([]eq.Filter, error) {
	var filters []eq.Filter

	for _, o := range d {
		if !o.IsModule() || o.ModuleName() != ModuleName {
			continue
		}

		nodes, err := o.GraphNodes()
		if err != nil {
			slog.Warn("Skipping filter-chain module", "id", o.ID, "error", err)
			continue
		}

		for _, node := range nodes {
			if node.Type != "builtin" || node.Label != "eq" {
				continue
			}
			parsed, err := parseControl(node.Control)
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", node.Name, err)
			}
			filters = append(filters, parsed...)
		}
	}

	return filters, nil
}

func parseControl(control map[string]any) ([]eq.Filter, error) {
	keys := make([]string, 0, len(control))
	for k := range control {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aErr := strconv.Atoi(keys[i])
		b, bErr := strconv.Atoi(keys[j])
		if aErr != nil || bErr != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})

	filters := make([]eq.Filter, 0, len(keys))
	for _, k := range keys {
		value, ok := control[k].(string)
		if !ok {
			return nil, fmt.Errorf("control %s: expected \"freq:gain:q\" string, got %v", k, control[k])
		}
		f, err := ParseTriple(value)
		if err != nil {
			return nil, fmt.Errorf("control %s: %w", k, err)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// ParseTriple parses a "freq:gain:q" control value into a peaking band
func ParseTriple(value string) (eq.Filter, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return eq.Filter{}, fmt.Errorf("invalid control value %q", value)
	}

	var nums [3]float64
	for i, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return eq.Filter{}, fmt.Errorf("invalid control value %q: %w", value, err)
		}
		nums[i] = n
	}
	return eq.NewPeaking(nums[0], nums[1], nums[2]), nil
}
