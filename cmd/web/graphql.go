package main

import (
	"errors"

	"github.com/Dynom/mxprobe/inspector"
	"github.com/graphql-go/graphql"
)

func NewGraphQLSchema(insp inspector.Inspector) (graphql.Schema, error) {
	verificationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "verification",
		Fields: graphql.Fields{
			"validEmails": &graphql.Field{
				Description: "Addresses the mail exchange acknowledged, in input order. 0 or more.",
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String))),
			},
			"invalidEmails": &graphql.Field{
				Description: "Every other address, including those that couldn't be verified, in input order. 0 or more.",
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String))),
			},
		},
	})

	fields := graphql.Fields{
		"verify": &graphql.Field{
			Type: verificationType,
			Args: graphql.FieldConfigArgument{
				"emails": &graphql.ArgumentConfig{
					Type:        graphql.NewNonNull(graphql.String),
					Description: "A comma separated list of e-mail addresses",
				},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				value, ok := p.Args["emails"].(string)
				if !ok {
					return nil, errors.New("missing required parameters")
				}

				result := insp.Inspect(p.Context, inspector.SplitAddresses(value))

				return map[string]interface{}{
					"validEmails":   result.Accepted,
					"invalidEmails": result.Rejected,
				}, nil
			},
			Description: "Verify if the addresses are deliverable",
		},
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "RootQuery",
			Fields: fields,
		}),
	})
}
