package datum

import "bytes"

// Marker token names.
const (
	OriginTokenName      = "FSN"
	CommitFoldTokenName  = "CFold"
	RewardFoldTokenName  = "RFold"
	TokenHolderTokenName = "PTHolder"
)

// NodeTokenName returns the marker name of the node with key k. The origin
// node's marker is the bare prefix.
func NodeTokenName(k NodeKey) []byte {
	return append([]byte(OriginTokenName), k...)
}

// KeyFromTokenName inverts NodeTokenName.
func KeyFromTokenName(name []byte) (NodeKey, bool) {
	if !bytes.HasPrefix(name, []byte(OriginTokenName)) {
		return nil, false
	}
	k := name[len(OriginTokenName):]
	if len(k) == 0 {
		return nil, true
	}
	return NodeKey(append([]byte(nil), k...)), true
}
