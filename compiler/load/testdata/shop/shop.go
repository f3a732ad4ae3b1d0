// Package shop declares a small catalog API.
//
// +graphql:schema=ShopAPI version=1.0.0
// +graphql:define=@cost(weight: Int!) on FIELD_DEFINITION description="Relative resolver cost."
// +graphql:union=SearchResult members=Product,User
package shop

import (
	"context"

	"github.com/google/uuid"
)

// Node is an object with a stable identifier.
//
// +graphql:interface
type Node struct {
	ID uuid.UUID `graphql:"id"`
}

// Status of a product.
//
// +graphql:enum
type Status string

const (
	// StatusActive products are listed.
	StatusActive Status = "Active"
	// +graphql:deprecated="Use Active"
	StatusLegacy Status = "Legacy"
	// +graphql:ignore
	StatusInternal Status = "Internal"
)

// Product is a catalog entry.
//
// +graphql:object implements=Node
type Product struct {
	ID     uuid.UUID `graphql:"id"`
	Name   string
	Price  float64 `directives:"@cost(weight: 2)"`
	Status Status
	Tags   []string `graphql:",nonnull"`
	Notes  *string  `graphql:",deprecated=Use description" description:"Free text."`
	secret string
}

// +graphql:object
type User struct {
	Node
	Email string `graphql:"email,type=AWSEmail!"`
}

// +graphql:input
type CreateProductInput struct {
	Name  string
	Price float64
}

// ListArgs are the arguments of listProducts.
type ListArgs struct {
	Limit *int `graphql:"limit,default=20"`
	After *string
}

// GetProduct fetches a product by id.
//
// +graphql:query name=getProduct
// +graphql:resolver=unit datasource=ProductsLambda
func GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return nil, nil
}

// +graphql:query=listProducts nonnull
func ListProducts(ctx context.Context, args ListArgs) ([]Product, error) {
	return nil, nil
}

// +graphql:query=search
// +graphql:returns=[SearchResult!]!
// +graphql:arg=text,nonnull
func Search(ctx context.Context, text *string) ([]any, error) {
	return nil, nil
}

// +graphql:mutation name=createProduct
// +graphql:resolver=pipeline functions=validateProduct,persistProduct response=createProduct.res.vtl
func CreateProduct(ctx context.Context, input CreateProductInput) (*Product, error) {
	return nil, nil
}

// helper is not part of the schema.
func helper() {}
