package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const pageSize = 10

// ProductRow, CheckoutRow etc are simple structs representing DB rows
type ProductRow struct {
	ID          int64
	Name        string
	Description sql.NullString
	Price       float64
	Quantity    int
	Image       sql.NullString
	CreatedAt   time.Time
}

// ProductUpdate carries a partial product update; nil fields keep the
// current column value.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Quantity    *int
}

type CheckoutRow struct {
	ID        int64
	UserID    sql.NullInt64
	Total     float64
	CreatedAt time.Time
}

type CheckoutItemRow struct {
	ID         int64
	CheckoutID int64
	ProductID  int64
	Quantity   int
	Price      float64
	SubTotal   float64
}

// PostgresStore is a Store backed by Postgres
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	DB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := DB.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{DB: DB}, nil
}

func (s *PostgresStore) Close() error { return s.DB.Close() }

// RunMigrations applies the embedded schema migrations.
func (s *PostgresStore) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(s.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// CreateProduct inserts a product and returns its id
func (s *PostgresStore) CreateProduct(name, desc string, price float64, quantity int) (int64, error) {
	var id int64
	err := s.DB.QueryRow(
		`INSERT INTO products (name, description, price, quantity) VALUES ($1, $2, $3, $4) RETURNING id`,
		name, desc, price, quantity,
	).Scan(&id)
	return id, err
}

func (s *PostgresStore) GetProduct(id int64) (ProductRow, error) {
	var p ProductRow
	err := s.DB.QueryRow(
		`SELECT id, name, description, price, quantity, image, created_at FROM products WHERE id=$1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.Image, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ProductRow{}, ErrProductNotFound
	}
	if err != nil {
		return ProductRow{}, err
	}
	return p, nil
}

// ListProducts returns one page of products, newest first. An empty search
// matches everything; otherwise name and description are matched
// case-insensitively.
func (s *PostgresStore) ListProducts(search string, page int) ([]ProductRow, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	pattern := "%" + search + "%"
	rows, err := s.DB.Query(`
		SELECT id, name, description, price, quantity, image, created_at
		FROM products
		WHERE $1 = '' OR name ILIKE $2 OR description ILIKE $2
		ORDER BY id DESC
		LIMIT $3 OFFSET $4
	`, search, pattern, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ProductRow{}
	for rows.Next() {
		var p ProductRow
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.Image, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateProduct(id int64, upd ProductUpdate) (ProductRow, error) {
	var p ProductRow
	err := s.DB.QueryRow(`
		UPDATE products
		SET name = COALESCE($1, name),
		    description = COALESCE($2, description),
		    price = COALESCE($3, price),
		    quantity = COALESCE($4, quantity)
		WHERE id = $5
		RETURNING id, name, description, price, quantity, image, created_at
	`, upd.Name, upd.Description, upd.Price, upd.Quantity, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.Image, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ProductRow{}, ErrProductNotFound
	}
	if err != nil {
		return ProductRow{}, err
	}
	return p, nil
}

func (s *PostgresStore) DeleteProduct(id int64) error {
	res, err := s.DB.Exec(`DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	ra, _ := res.RowsAffected()
	if ra == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PostgresStore) SetProductImage(id int64, image string) error {
	res, err := s.DB.Exec(`UPDATE products SET image=$1 WHERE id=$2`, image, id)
	if err != nil {
		return err
	}
	ra, _ := res.RowsAffected()
	if ra == 0 {
		return ErrProductNotFound
	}
	return nil
}
