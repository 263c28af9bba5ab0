package shopify

import (
	"context"
	"fmt"
)

type MetaobjectDefinition struct {
	Type             string            `json:"type"`
	Name             string            `json:"name"`
	FieldDefinitions []FieldDefinition `json:"fieldDefinitions"`
}

type FieldDefinition struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Type struct {
		Name string `json:"name"`
	} `json:"type"`
}

type Metaobject struct {
	ID          string            `json:"id"`
	Handle      string            `json:"handle"`
	DisplayName string            `json:"displayName"`
	Fields      []MetaobjectField `json:"fields"`
}

type MetaobjectField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FieldValue returns the value of key, or "" when the entry has no such field.
func (m Metaobject) FieldValue(key string) string {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// Label is the display name, or the handle when the name is empty.
func (m Metaobject) Label() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Handle
}

func (c Client) ListMetaobjectDefinitions(ctx context.Context) ([]MetaobjectDefinition, error) {
	const query = `
query {
  metaobjectDefinitions(first: 50) {
    nodes {
      type
      name
      fieldDefinitions {
        key
        name
        type { name }
      }
    }
  }
}
`
	var data struct {
		MetaobjectDefinitions struct {
			Nodes []MetaobjectDefinition `json:"nodes"`
		} `json:"metaobjectDefinitions"`
	}
	if err := c.graphQL(ctx, query, nil, &data); err != nil {
		return nil, err
	}
	return data.MetaobjectDefinitions.Nodes, nil
}

type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type MetaobjectPage struct {
	Nodes    []Metaobject `json:"nodes"`
	PageInfo PageInfo     `json:"pageInfo"`
}

// MaxPageSize is the largest "first" the Admin API accepts.
const MaxPageSize = 250

// ListMetaobjects returns the first page of entries of typ.
func (c Client) ListMetaobjects(ctx context.Context, typ string, first int) ([]Metaobject, error) {
	page, err := c.ListMetaobjectsPage(ctx, typ, first, "")
	if err != nil {
		return nil, err
	}
	return page.Nodes, nil
}

// ListMetaobjectsPage returns up to first entries of typ after the cursor.
func (c Client) ListMetaobjectsPage(ctx context.Context, typ string, first int, after string) (MetaobjectPage, error) {
	if typ == "" {
		return MetaobjectPage{}, fmt.Errorf("missing metaobject type")
	}
	if first <= 0 || first > MaxPageSize {
		first = MaxPageSize
	}
	const query = `
query ListMetaobjects($type: String!, $first: Int!, $after: String) {
  metaobjects(type: $type, first: $first, after: $after) {
    nodes {
      id
      handle
      displayName
      fields {
        key
        value
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}
`
	vars := map[string]any{"type": typ, "first": first}
	if after != "" {
		vars["after"] = after
	}
	var data struct {
		Metaobjects MetaobjectPage `json:"metaobjects"`
	}
	if err := c.graphQL(ctx, query, vars, &data); err != nil {
		return MetaobjectPage{}, err
	}
	return data.Metaobjects, nil
}

// ListAllMetaobjects follows pageInfo.endCursor until every entry of typ is read.
func (c Client) ListAllMetaobjects(ctx context.Context, typ string) ([]Metaobject, error) {
	var (
		out   []Metaobject
		after string
	)
	for {
		page, err := c.ListMetaobjectsPage(ctx, typ, MaxPageSize, after)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Nodes...)
		if !page.PageInfo.HasNextPage || page.PageInfo.EndCursor == "" {
			return out, nil
		}
		after = page.PageInfo.EndCursor
	}
}

// MetaobjectByHandle returns nil when no entry of typ has handle.
func (c Client) MetaobjectByHandle(ctx context.Context, typ, handle string) (*Metaobject, error) {
	const query = `
query FindMetaobject($handle: MetaobjectHandleInput!) {
  metaobjectByHandle(handle: $handle) {
    id
    handle
    displayName
    fields {
      key
      value
    }
  }
}
`
	var data struct {
		MetaobjectByHandle *Metaobject `json:"metaobjectByHandle"`
	}
	vars := map[string]any{"handle": map[string]any{"type": typ, "handle": handle}}
	if err := c.graphQL(ctx, query, vars, &data); err != nil {
		return nil, err
	}
	return data.MetaobjectByHandle, nil
}

type MetaobjectInput struct {
	Type   string            `json:"type"`
	Handle string            `json:"handle,omitempty"`
	Fields []MetaobjectField `json:"fields"`
}

func (c Client) CreateMetaobject(ctx context.Context, in MetaobjectInput) (Metaobject, error) {
	if in.Type == "" {
		return Metaobject{}, fmt.Errorf("missing metaobject type")
	}
	const mutation = `
mutation MetaobjectCreate($metaobject: MetaobjectCreateInput!) {
  metaobjectCreate(metaobject: $metaobject) {
    metaobject {
      id
      handle
      displayName
    }
    userErrors {
      field
      message
    }
  }
}
`
	var data struct {
		MetaobjectCreate struct {
			Metaobject *Metaobject `json:"metaobject"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"metaobjectCreate"`
	}
	if err := c.graphQL(ctx, mutation, map[string]any{"metaobject": in}, &data); err != nil {
		return Metaobject{}, err
	}
	if len(data.MetaobjectCreate.UserErrors) > 0 {
		return Metaobject{}, fmt.Errorf("metaobjectCreate user error: %s", UserErrorsMessage(data.MetaobjectCreate.UserErrors))
	}
	if data.MetaobjectCreate.Metaobject == nil {
		return Metaobject{}, fmt.Errorf("metaobjectCreate returned no metaobject")
	}
	return *data.MetaobjectCreate.Metaobject, nil
}

// UpdateMetaobject replaces the given fields on id; fields not listed are kept.
func (c Client) UpdateMetaobject(ctx context.Context, id string, fields []MetaobjectField) (Metaobject, error) {
	if id == "" {
		return Metaobject{}, fmt.Errorf("missing metaobject id")
	}
	const mutation = `
mutation MetaobjectUpdate($id: ID!, $metaobject: MetaobjectUpdateInput!) {
  metaobjectUpdate(id: $id, metaobject: $metaobject) {
    metaobject {
      id
      handle
      displayName
    }
    userErrors {
      field
      message
    }
  }
}
`
	var data struct {
		MetaobjectUpdate struct {
			Metaobject *Metaobject `json:"metaobject"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"metaobjectUpdate"`
	}
	vars := map[string]any{"id": id, "metaobject": map[string]any{"fields": fields}}
	if err := c.graphQL(ctx, mutation, vars, &data); err != nil {
		return Metaobject{}, err
	}
	if len(data.MetaobjectUpdate.UserErrors) > 0 {
		return Metaobject{}, fmt.Errorf("metaobjectUpdate user error: %s", UserErrorsMessage(data.MetaobjectUpdate.UserErrors))
	}
	if data.MetaobjectUpdate.Metaobject == nil {
		return Metaobject{}, fmt.Errorf("metaobjectUpdate returned no metaobject")
	}
	return *data.MetaobjectUpdate.Metaobject, nil
}

// MetaobjectDefinitionID returns the definition gid for typ.
func (c Client) MetaobjectDefinitionID(ctx context.Context, typ string) (string, error) {
	const query = `
query DefinitionByType($type: String!) {
  metaobjectDefinitionByType(type: $type) {
    id
  }
}
`
	var data struct {
		MetaobjectDefinitionByType *struct {
			ID string `json:"id"`
		} `json:"metaobjectDefinitionByType"`
	}
	if err := c.graphQL(ctx, query, map[string]any{"type": typ}, &data); err != nil {
		return "", err
	}
	if data.MetaobjectDefinitionByType == nil {
		return "", fmt.Errorf("no metaobject definition of type %q", typ)
	}
	return data.MetaobjectDefinitionByType.ID, nil
}

// DeleteMetaobject returns the deleted id; userErrors are reported as an error.
func (c Client) DeleteMetaobject(ctx context.Context, id string) (string, error) {
	const mutation = `
mutation MetaobjectDelete($id: ID!) {
  metaobjectDelete(id: $id) {
    deletedId
    userErrors {
      field
      message
    }
  }
}
`
	var data struct {
		MetaobjectDelete struct {
			DeletedID  string      `json:"deletedId"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"metaobjectDelete"`
	}
	if err := c.graphQL(ctx, mutation, map[string]any{"id": id}, &data); err != nil {
		return "", err
	}
	if len(data.MetaobjectDelete.UserErrors) > 0 {
		return "", fmt.Errorf("metaobjectDelete user error: %s", UserErrorsMessage(data.MetaobjectDelete.UserErrors))
	}
	return data.MetaobjectDelete.DeletedID, nil
}
