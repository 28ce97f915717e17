package main

import (
	"context"
	"reflect"
	"testing"

	"github.com/Dynom/mxprobe/inspector"
	"github.com/graphql-go/graphql"
)

func TestNewGraphQLSchema(t *testing.T) {
	schema, err := NewGraphQLSchema(inspector.New(inspector.WithCheckFn(acceptOK)))
	if err != nil {
		t.Fatalf("NewGraphQLSchema() unexpected error %s", err)
	}

	t.Run("verify", func(t *testing.T) {
		res := graphql.Do(graphql.Params{
			Schema:        schema,
			RequestString: `{ verify(emails: "ok@gmail.com, nope@gmail.com") { validEmails invalidEmails } }`,
			Context:       context.Background(),
		})

		if res.HasErrors() {
			t.Fatalf("Unexpected errors %+v", res.Errors)
		}

		want := map[string]interface{}{
			"verify": map[string]interface{}{
				"validEmails":   []interface{}{"ok@gmail.com"},
				"invalidEmails": []interface{}{"nope@gmail.com"},
			},
		}

		if !reflect.DeepEqual(res.Data, want) {
			t.Errorf("Expected %+v, instead I got %+v", want, res.Data)
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		res := graphql.Do(graphql.Params{
			Schema:        schema,
			RequestString: `{ verify { validEmails } }`,
			Context:       context.Background(),
		})

		if !res.HasErrors() {
			t.Errorf("Expected an error for the missing argument, instead I got %+v", res.Data)
		}
	})
}
