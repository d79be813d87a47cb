package document

import (
	"encoding/json"
	"fmt"
)

// CurrentVersion is the document format version this runtime reads and
// writes natively.
const CurrentVersion = 1

// Upgrader translates a serialized document one or more versions forward.
// Hosts register a chain of these; the runtime itself is version-agnostic
// and only ever compiles the current in-memory representation.
type Upgrader func(version int, raw json.RawMessage) (int, json.RawMessage, error)

// serializedDocument is the keyed-record envelope of a saved graph.
type serializedDocument struct {
	Version int             `json:"version"`
	Network json.RawMessage `json:"network"`
}

// Serialize encodes a network in the current document format.
func Serialize(n *NodeNetwork) ([]byte, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("document: serialize: %w", err)
	}
	return json.MarshalIndent(serializedDocument{Version: CurrentVersion, Network: raw}, "", "\t")
}

// Deserialize decodes a saved graph, running upgraders until the payload
// reaches the current version. Unknown proto identifiers deserialize
// fine; they fail later, at compile time, with the identifier preserved.
func Deserialize(data []byte, upgraders ...Upgrader) (*NodeNetwork, error) {
	var doc serializedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document: deserialize: %w", err)
	}

	version, raw := doc.Version, doc.Network
	for version < CurrentVersion {
		upgraded := false
		for _, up := range upgraders {
			newVersion, newRaw, err := up(version, raw)
			if err != nil {
				return nil, fmt.Errorf("document: upgrade from version %d: %w", version, err)
			}
			if newVersion > version {
				version, raw = newVersion, newRaw
				upgraded = true
				break
			}
		}
		if !upgraded {
			return nil, fmt.Errorf("document: no upgrader accepts version %d", version)
		}
	}
	if version > CurrentVersion {
		return nil, fmt.Errorf("document: version %d is newer than supported %d", version, CurrentVersion)
	}

	network := NewNetwork(0)
	if err := json.Unmarshal(raw, network); err != nil {
		return nil, fmt.Errorf("document: deserialize network: %w", err)
	}
	if network.Nodes == nil {
		network.Nodes = make(map[NodeID]*DocumentNode)
	}
	return network, nil
}
