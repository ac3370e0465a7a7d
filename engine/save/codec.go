package save

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/ugorji/go/codec"
)

// Format selects the wire encoding of a save.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// Ext returns the file extension used for f.
func (f Format) Ext() string {
	if f == FormatMsgpack {
		return ".sav"
	}
	return ".json"
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("unknown save format %q", s)
}

var msgpackHandle = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.RawToString = true
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return h
}()

// Encode serializes sd in the given format.
func Encode(sd *SaveData, f Format) ([]byte, error) {
	switch f {
	case FormatMsgpack:
		var buf bytes.Buffer
		if err := codec.NewEncoder(&buf, msgpackHandle).Encode(sd); err != nil {
			return nil, fmt.Errorf("encode save: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return json.MarshalIndent(sd, "", "  ")
	}
}

// Decode deserializes a save in the given format.
func Decode(data []byte, f Format) (*SaveData, error) {
	var sd SaveData
	switch f {
	case FormatMsgpack:
		if err := codec.NewDecoder(bytes.NewReader(data), msgpackHandle).Decode(&sd); err != nil {
			return nil, fmt.Errorf("decode save: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &sd); err != nil {
			return nil, fmt.Errorf("decode save: %w", err)
		}
	}
	// Maps are never nil after load.
	if sd.Properties == nil {
		sd.Properties = map[string]string{}
	}
	if sd.Scenes == nil {
		sd.Scenes = map[string]SceneState{}
	}
	if sd.Actors == nil {
		sd.Actors = map[string]ActorState{}
	}
	if sd.DefaultVerbs == nil {
		sd.DefaultVerbs = map[string]VerbState{}
	}
	if sd.Flows == nil {
		sd.Flows = map[string]VerbState{}
	}
	return &sd, nil
}
