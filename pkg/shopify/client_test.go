package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newGraphQLServer(t *testing.T, reply func(req gqlRequest) string) (*httptest.Server, Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/api/2025-01/graphql.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Shopify-Access-Token") != "shpat_test" {
			t.Errorf("missing access token header")
		}
		var req gqlRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_, _ = w.Write([]byte(reply(req)))
	}))
	t.Cleanup(srv.Close)
	return srv, Client{ShopDomain: "my-store.myshopify.com", AccessToken: "shpat_test", BaseURL: srv.URL}
}

func TestListMetaobjects(t *testing.T) {
	_, c := newGraphQLServer(t, func(req gqlRequest) string {
		if req.Variables["type"] != "paint_color" {
			t.Errorf("unexpected variables: %v", req.Variables)
		}
		return `{"data":{"metaobjects":{"nodes":[
			{"id":"gid://shopify/Metaobject/1","handle":"red","displayName":"","fields":[{"key":"hex","value":"#f00"}]}
		]}}}`
	})

	got, err := c.ListMetaobjects(context.Background(), "paint_color", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Label() != "red" || got[0].Fields[0].Value != "#f00" {
		t.Fatalf("unexpected metaobjects: %+v", got)
	}
}

func TestListMetaobjectDefinitions(t *testing.T) {
	_, c := newGraphQLServer(t, func(req gqlRequest) string {
		return `{"data":{"metaobjectDefinitions":{"nodes":[
			{"type":"paint_color","name":"Paint color","fieldDefinitions":[{"key":"hex","name":"Hex","type":{"name":"single_line_text_field"}}]}
		]}}}`
	})
	defs, err := c.ListMetaobjectDefinitions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(defs) != 1 || defs[0].FieldDefinitions[0].Type.Name != "single_line_text_field" {
		t.Fatalf("unexpected definitions: %+v", defs)
	}
}

func TestDeleteMetaobject_UserErrors(t *testing.T) {
	_, c := newGraphQLServer(t, func(req gqlRequest) string {
		return `{"data":{"metaobjectDelete":{"deletedId":null,"userErrors":[{"field":["id"],"message":"not found"}]}}}`
	})
	_, err := c.DeleteMetaobject(context.Background(), "gid://shopify/Metaobject/9")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected user error, got %v", err)
	}
}

func TestGraphQL_TopLevelErrors(t *testing.T) {
	_, c := newGraphQLServer(t, func(req gqlRequest) string {
		return `{"errors":[{"message":"Access denied for metaobjects field."}]}`
	})
	_, err := c.ListMetaobjects(context.Background(), "paint_color", 10)
	if err == nil || !strings.Contains(err.Error(), "Access denied") {
		t.Fatalf("expected graphql error, got %v", err)
	}
}

func TestListProducts_ParsesPrice(t *testing.T) {
	_, c := newGraphQLServer(t, func(req gqlRequest) string {
		return `{"data":{"products":{"nodes":[
			{"id":"gid://shopify/Product/1","title":"Wall paint","handle":"wall-paint",
			 "priceRangeV2":{"minVariantPrice":{"amount":"129.95","currencyCode":"DKK"}},
			 "metafields":{"nodes":[{"namespace":"custom","key":"paint_type","value":"x","type":"metaobject_reference"}]}}
		]}}}`
	})
	products, err := c.ListProducts(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	if products[0].MinPrice.String() != "129.95" || products[0].Currency != "DKK" {
		t.Fatalf("unexpected price: %s %s", products[0].MinPrice, products[0].Currency)
	}
	if products[0].Metafields[0].Key != "paint_type" {
		t.Fatalf("unexpected metafields: %+v", products[0].Metafields)
	}
}

func TestDoJSON_NonSuccessSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":"missing scope"}`))
	}))
	defer srv.Close()

	c := Client{ShopDomain: "x.myshopify.com", AccessToken: "t", BaseURL: srv.URL}
	_, err := c.ListProducts(context.Background(), 5)
	if err == nil || !strings.Contains(err.Error(), "status=403") || !strings.Contains(err.Error(), "missing scope") {
		t.Fatalf("unexpected error: %v", err)
	}
}
