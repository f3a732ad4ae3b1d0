// Package graphql provides the annotations used to declare AppSync schema
// elements at run time.
//
// Annotations complement what can be derived from Go types through
// reflection:
//
//	src := load.NewReflectSource("ShopAPI").
//	    Object(shop.Product{}, graphql.Implements("Node")).
//	    Query(shop.GetProduct,
//	        graphql.Name("getProduct"),
//	        graphql.Args("id"),
//	        graphql.Unit("ProductsLambda"),
//	    )
//
// Struct fields are configured with tags:
//
//	type Product struct {
//	    ID    uuid.UUID `graphql:"id"`
//	    Price float64
//	    Notes *string   `graphql:",deprecated=Use description" description:"Free text."`
//	    Tags  []string  `graphql:",nonnull" directives:"@aws_iam"`
//	}
package graphql
