package anchor

import (
	"encoding/json"
	"fmt"
	"os"
)

type Idl struct {
	Version      string           `json:"version"`
	Name         string           `json:"name"`
	Instructions []IdlInstruction `json:"instructions"`
	Accounts     []IdlTypeDef     `json:"accounts,omitempty"`
	Types        []IdlTypeDef     `json:"types,omitempty"`
	Errors       []IdlErrorCode   `json:"errors,omitempty"`
	Metadata     *IdlMetadata     `json:"metadata,omitempty"`
}

type IdlMetadata struct {
	Address string `json:"address"`
}

type IdlInstruction struct {
	Name     string          `json:"name"`
	Accounts []IdlAccountRef `json:"accounts"`
	Args     []IdlField      `json:"args"`
}

type IdlAccountRef struct {
	Name     string `json:"name"`
	IsMut    bool   `json:"isMut"`
	IsSigner bool   `json:"isSigner"`
	Optional bool   `json:"isOptional,omitempty"`
}

type IdlField struct {
	Name string  `json:"name"`
	Type IdlType `json:"type"`
}

type IdlTypeDef struct {
	Name string `json:"name"`
	Type struct {
		Kind   string     `json:"kind"`
		Fields []IdlField `json:"fields,omitempty"`
	} `json:"type"`
}

type IdlErrorCode struct {
	Code uint32 `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg,omitempty"`
}

// IdlType is either a primitive name ("u64", "publicKey", ...) or one of the
// composite forms {"vec": T}, {"option": T}, {"array": [T, n]}, {"defined": "Name"}.
type IdlType struct {
	Primitive string
	Vec       *IdlType
	Option    *IdlType
	Array     *IdlType
	ArrayLen  int
	Defined   string
}

func (t *IdlType) UnmarshalJSON(data []byte) error {
	var primitive string
	if err := json.Unmarshal(data, &primitive); err == nil {
		t.Primitive = primitive
		return nil
	}

	var composite struct {
		Vec     *IdlType          `json:"vec"`
		Option  *IdlType          `json:"option"`
		Array   []json.RawMessage `json:"array"`
		Defined json.RawMessage   `json:"defined"`
	}
	if err := json.Unmarshal(data, &composite); err != nil {
		return fmt.Errorf("invalid idl type %s: %w", string(data), err)
	}

	switch {
	case composite.Vec != nil:
		t.Vec = composite.Vec
	case composite.Option != nil:
		t.Option = composite.Option
	case len(composite.Array) == 2:
		t.Array = &IdlType{}
		if err := json.Unmarshal(composite.Array[0], t.Array); err != nil {
			return err
		}
		if err := json.Unmarshal(composite.Array[1], &t.ArrayLen); err != nil {
			return fmt.Errorf("invalid idl array length: %w", err)
		}
	case len(composite.Defined) > 0:
		// "defined" is a plain string in older idls and {"name": ...} in newer ones
		if err := json.Unmarshal(composite.Defined, &t.Defined); err != nil {
			var named struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(composite.Defined, &named); err != nil {
				return fmt.Errorf("invalid idl defined type: %w", err)
			}
			t.Defined = named.Name
		}
	default:
		return fmt.Errorf("unsupported idl type %s", string(data))
	}

	return nil
}

func (t IdlType) MarshalJSON() ([]byte, error) {
	switch {
	case t.Vec != nil:
		return json.Marshal(map[string]interface{}{"vec": t.Vec})
	case t.Option != nil:
		return json.Marshal(map[string]interface{}{"option": t.Option})
	case t.Array != nil:
		return json.Marshal(map[string]interface{}{"array": []interface{}{t.Array, t.ArrayLen}})
	case t.Defined != "":
		return json.Marshal(map[string]interface{}{"defined": t.Defined})
	}
	return json.Marshal(t.Primitive)
}

func (t IdlType) String() string {
	switch {
	case t.Vec != nil:
		return "vec<" + t.Vec.String() + ">"
	case t.Option != nil:
		return "option<" + t.Option.String() + ">"
	case t.Array != nil:
		return fmt.Sprintf("[%v; %v]", t.Array.String(), t.ArrayLen)
	case t.Defined != "":
		return t.Defined
	}
	return t.Primitive
}

// ParseIdl decodes an anchor idl json document.
func ParseIdl(data []byte) (*Idl, error) {
	idl := &Idl{}
	if err := json.Unmarshal(data, idl); err != nil {
		return nil, fmt.Errorf("error decoding idl: %w", err)
	}
	if idl.Name == "" {
		return nil, fmt.Errorf("error decoding idl: missing program name")
	}

	seen := map[string]bool{}
	for _, ix := range idl.Instructions {
		key := SnakeCase(ix.Name)
		if seen[key] {
			return nil, fmt.Errorf("error decoding idl: duplicate instruction %v", ix.Name)
		}
		seen[key] = true
	}

	return idl, nil
}

func LoadIdl(path string) (*Idl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening idl file %v: %w", path, err)
	}

	idl, err := ParseIdl(data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return idl, nil
}

// Instruction finds an instruction by idl or rust name.
func (idl *Idl) Instruction(name string) (*IdlInstruction, bool) {
	key := SnakeCase(name)
	for i := range idl.Instructions {
		if SnakeCase(idl.Instructions[i].Name) == key {
			return &idl.Instructions[i], true
		}
	}
	return nil, false
}

func (idl *Idl) Account(name string) (*IdlTypeDef, bool) {
	for i := range idl.Accounts {
		if idl.Accounts[i].Name == name {
			return &idl.Accounts[i], true
		}
	}
	return nil, false
}

func (idl *Idl) ErrorByCode(code uint32) (*IdlErrorCode, bool) {
	for i := range idl.Errors {
		if idl.Errors[i].Code == code {
			return &idl.Errors[i], true
		}
	}
	return nil, false
}
