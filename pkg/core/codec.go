package core

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type envelope struct {
	Type ActionType `json:"type"`
}

// MarshalAction encodes a as a flat envelope: {"type": <tag>, ...fields}.
func MarshalAction(a Action) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil action", ErrMalformedAction)
	}

	fields := make(map[string]json.RawMessage)
	if _, unknown := a.(Unknown); !unknown {
		body, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", a.Type(), err)
		}
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("encode %s: %w", a.Type(), err)
		}
	}

	tag, err := json.Marshal(a.Type())
	if err != nil {
		return nil, err
	}
	fields["type"] = tag
	return json.Marshal(fields)
}

// UnmarshalAction decodes an envelope produced by MarshalAction (or by any
// other producer of the same wire format). Unrecognised tags decode into
// Unknown; broken JSON and a missing tag yield ErrMalformedAction.
func UnmarshalAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedAction)
	}

	var (
		a   Action
		err error
	)
	switch env.Type {
	case ActionInitAll:
		a, err = decodeAs[InitAll](data)
	case ActionAddRepository:
		a, err = decodeAs[AddRepository](data)
	case ActionRemoveRepository:
		a, err = decodeAs[RemoveRepository](data)
	case ActionAddFolder:
		a, err = decodeAs[AddFolder](data)
	case ActionEditFolder:
		a, err = decodeAs[EditFolder](data)
	case ActionRemoveFolder:
		a, err = decodeAs[RemoveFolder](data)
	case ActionAddNote:
		a, err = decodeAs[AddNote](data)
	case ActionSaveNote:
		a, err = decodeAs[SaveNote](data)
	case ActionStarNote:
		a, err = decodeAs[StarNote](data)
	case ActionUnstarNote:
		a, err = decodeAs[UnstarNote](data)
	case ActionSetSideNavFolded:
		a, err = decodeAs[SetSideNavFolded](data)
	case ActionSetZoom:
		a, err = decodeAs[SetZoom](data)
	case ActionSetListWidth:
		a, err = decodeAs[SetListWidth](data)
	case ActionSetConfig:
		a, err = decodeAs[SetConfig](data)
	default:
		return Unknown{Tag: string(env.Type)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedAction, env.Type, err)
	}
	return a, nil
}

func decodeAs[T Action](data []byte) (Action, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseActionScript reads a list of action envelopes written in YAML or JSON.
func ParseActionScript(r io.Reader) ([]Action, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read action script: %w", err)
	}

	var raw []map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid script: %v", ErrMalformedAction, err)
	}

	actions := make([]Action, 0, len(raw))
	for i, item := range raw {
		body, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedAction, i, err)
		}
		a, err := UnmarshalAction(body)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}
