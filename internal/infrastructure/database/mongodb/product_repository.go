// internal/infrastructure/database/mongodb/product_repository.go
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductCollection is the catalog collection name
const ProductCollection = "products"

// productDocument is the stored shape of a product. Prices are Decimal128.
type productDocument struct {
	ID          string               `bson:"_id"`
	SellerID    *string              `bson:"seller_id,omitempty"`
	Name        string               `bson:"name"`
	Price       primitive.Decimal128 `bson:"price"`
	Stock       int                  `bson:"stock"`
	Category    string               `bson:"category"`
	ImageURL    string               `bson:"image_url"`
	Description string               `bson:"description"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func toDocument(p *product.Product) (*productDocument, error) {
	price, err := primitive.ParseDecimal128(p.Price.String())
	if err != nil {
		return nil, fmt.Errorf("invalid price %s: %w", p.Price, err)
	}
	return &productDocument{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Name:        p.Name,
		Price:       price,
		Stock:       p.Stock,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (d *productDocument) toProduct() (*product.Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return nil, fmt.Errorf("invalid stored price for %s: %w", d.ID, err)
	}
	return &product.Product{
		ID:          d.ID,
		SellerID:    d.SellerID,
		Name:        d.Name,
		Price:       price,
		Stock:       d.Stock,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

// ProductRepository is the MongoDB-backed catalog store
type ProductRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ product.Repository = (*ProductRepository)(nil)

// NewProductRepository creates a catalog repository on the given database
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		coll: db.Collection(ProductCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the indexes listing and ownership queries rely on
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := r.now()
	p.CreatedAt, p.UpdatedAt = now, now

	doc, err := toDocument(p)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// FindByID loads a product by id
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*product.Product, error) {
	var doc productDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return doc.toProduct()
}

// FindByName returns every product with exactly the given name
func (r *ProductRepository) FindByName(ctx context.Context, name string) ([]product.Product, error) {
	return r.find(ctx, bson.M{"name": name}, newestFirst())
}

// FindBySeller returns the seller's products, newest first
func (r *ProductRepository) FindBySeller(ctx context.Context, sellerID string) ([]product.Product, error) {
	return r.find(ctx, bson.M{"seller_id": sellerID}, newestFirst())
}

// List returns one page of the public catalog and the total match count
func (r *ProductRepository) List(ctx context.Context, filter product.ListFilter) ([]product.Product, int64, error) {
	filter = filter.Normalized()

	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		query["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	opts := newestFirst().
		SetSkip(int64(filter.Offset())).
		SetLimit(int64(filter.Limit))
	products, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Categories returns the distinct category labels in use
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// Update writes the descriptive fields of an existing product. Stock is left alone.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	price, err := primitive.ParseDecimal128(p.Price.String())
	if err != nil {
		return fmt.Errorf("invalid price %s: %w", p.Price, err)
	}
	p.UpdatedAt = r.now()

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":        p.Name,
		"price":       price,
		"category":    p.Category,
		"image_url":   p.ImageURL,
		"description": p.Description,
		"updated_at":  p.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a product permanently
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DecrementStock subtracts qty in a single findAndModify guarded by stock >= qty
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, qty int) (*product.Product, error) {
	if qty < 1 {
		return nil, shared.NewValidationError("quantity must be at least 1")
	}

	var doc productDocument
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"stock": -qty},
			"$set": bson.M{"updated_at": r.now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.toProduct()
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &shared.InsufficientStockError{ProductID: id, Requested: qty, Available: current.Stock}
}

// SetStock replaces stock with to, guarded by stock still being from
func (r *ProductRepository) SetStock(ctx context.Context, id string, from, to int) error {
	if to < 0 {
		return shared.NewValidationError("stock cannot be negative")
	}

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "stock": from},
		bson.M{"$set": bson.M{"stock": to, "updated_at": r.now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return shared.ErrStockChanged
}

// IncrementStock returns qty units to stock
func (r *ProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	if qty < 1 {
		return shared.NewValidationError("quantity must be at least 1")
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updated_at": r.now()},
	})
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]product.Product, error) {
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]product.Product, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toProduct()
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
}
