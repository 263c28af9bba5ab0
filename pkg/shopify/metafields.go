package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrDefinitionExists is returned when a metafield definition with the same
// namespace and key is already registered for the owner type.
var ErrDefinitionExists = errors.New("metafield definition already exists")

type Validation struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type MetafieldDefinition struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	Type      struct {
		Name string `json:"name"`
	} `json:"type"`
	Validations []Validation `json:"validations"`
}

type MetafieldDefinitionInput struct {
	Name        string       `json:"name"`
	Namespace   string       `json:"namespace"`
	Key         string       `json:"key"`
	Type        string       `json:"type"`
	OwnerType   string       `json:"ownerType"`
	Validations []Validation `json:"validations,omitempty"`
}

type MetafieldsSetInput struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// ListMetafieldDefinitions lists definitions for ownerType, e.g. "PRODUCT".
func (c Client) ListMetafieldDefinitions(ctx context.Context, ownerType string) ([]MetafieldDefinition, error) {
	if ownerType == "" {
		ownerType = "PRODUCT"
	}
	const query = `
query ListMetafieldDefinitions($ownerType: MetafieldOwnerType!) {
  metafieldDefinitions(ownerType: $ownerType, first: 50) {
    nodes {
      id
      namespace
      key
      name
      type { name }
      validations {
        name
        value
      }
    }
  }
}
`
	var data struct {
		MetafieldDefinitions struct {
			Nodes []MetafieldDefinition `json:"nodes"`
		} `json:"metafieldDefinitions"`
	}
	if err := c.graphQL(ctx, query, map[string]any{"ownerType": ownerType}, &data); err != nil {
		return nil, err
	}
	return data.MetafieldDefinitions.Nodes, nil
}

// CreateMetafieldDefinition returns the new definition id. A definition that is
// already taken yields ErrDefinitionExists so callers can carry on.
func (c Client) CreateMetafieldDefinition(ctx context.Context, in MetafieldDefinitionInput) (string, error) {
	const mutation = `
mutation CreateMetafieldDefinition($definition: MetafieldDefinitionInput!) {
  metafieldDefinitionCreate(definition: $definition) {
    createdDefinition {
      id
      namespace
      key
    }
    userErrors {
      field
      message
    }
  }
}
`
	var data struct {
		MetafieldDefinitionCreate struct {
			CreatedDefinition *struct {
				ID string `json:"id"`
			} `json:"createdDefinition"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldDefinitionCreate"`
	}
	if err := c.graphQL(ctx, mutation, map[string]any{"definition": in}, &data); err != nil {
		return "", err
	}
	if errs := data.MetafieldDefinitionCreate.UserErrors; len(errs) > 0 {
		if definitionTaken(errs) {
			return "", fmt.Errorf("%w: %s.%s", ErrDefinitionExists, in.Namespace, in.Key)
		}
		return "", fmt.Errorf("metafieldDefinitionCreate user error: %s", UserErrorsMessage(errs))
	}
	if data.MetafieldDefinitionCreate.CreatedDefinition == nil {
		return "", fmt.Errorf("metafieldDefinitionCreate returned no definition")
	}
	return data.MetafieldDefinitionCreate.CreatedDefinition.ID, nil
}

func definitionTaken(errs []UserError) bool {
	for _, e := range errs {
		m := strings.ToLower(e.Message)
		if strings.Contains(m, "already exists") || strings.Contains(m, "taken") || strings.Contains(m, "in use") {
			return true
		}
	}
	return false
}

func (c Client) SetMetafields(ctx context.Context, metafields []MetafieldsSetInput) ([]Metafield, error) {
	if len(metafields) == 0 {
		return nil, nil
	}
	const mutation = `
mutation SetMetafields($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      namespace
      key
      value
      type
    }
    userErrors {
      field
      message
    }
  }
}
`
	var data struct {
		MetafieldsSet struct {
			Metafields []Metafield `json:"metafields"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := c.graphQL(ctx, mutation, map[string]any{"metafields": metafields}, &data); err != nil {
		return nil, err
	}
	if len(data.MetafieldsSet.UserErrors) > 0 {
		return nil, fmt.Errorf("metafieldsSet user error: %s", UserErrorsMessage(data.MetafieldsSet.UserErrors))
	}
	return data.MetafieldsSet.Metafields, nil
}
