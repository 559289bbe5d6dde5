package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/lib/pq"

	"ecommerce-service/internal/domain"
)

const orderColumns = "id, user_id, total_amount, status, address, created_at"

// --- OrderStorer Implementation ---

// CreateOrder runs the checkout as a single transaction: every referenced
// product is locked and validated against live stock, prices are snapshotted,
// and the order header, its lines, and the stock decrements commit together
// or not at all.
//
// Each product row is fetched FOR UPDATE, so two checkouts racing for the
// last unit serialize on the row lock; the stock-guarded decrement checking
// its affected-row count is the backstop that keeps stock from going
// negative even without that lock.
func (s *PostgresStore) CreateOrder(ctx context.Context, userID int64, lines []domain.CartLine, address string) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	merged, err := mergeCartLines(lines)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after a successful commit

	// Lock and validate every product, accumulating the total at snapshot
	// prices.
	type pricedLine struct {
		domain.CartLine
		name  string
		price float64
	}
	priced := make([]pricedLine, 0, len(merged))
	var totalAmount float64
	for _, line := range merged {
		var (
			name  string
			price float64
			stock int32
		)
		err := tx.QueryRowContext(ctx,
			`SELECT name, price, stock FROM products WHERE id = $1 FOR UPDATE;`,
			line.ProductID,
		).Scan(&name, &price, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, line.ProductID)
			}
			return nil, fmt.Errorf("store: CreateOrder failed to lock product %d: %w", line.ProductID, err)
		}
		if stock < line.Quantity {
			return nil, &InsufficientStockError{ProductName: name, Available: stock}
		}
		totalAmount += price * float64(line.Quantity)
		priced = append(priced, pricedLine{CartLine: line, name: name, price: price})
	}

	order := &domain.Order{
		UserID:      userID,
		TotalAmount: totalAmount,
		Status:      domain.OrderStatusPending,
		Address:     address,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, total_amount, status, address) VALUES ($1, $2, $3, $4) RETURNING id, created_at;`,
		order.UserID, order.TotalAmount, order.Status, order.Address,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to insert order: %w", err)
	}

	order.Lines = make([]domain.OrderLine, 0, len(priced))
	for _, line := range priced {
		ol := domain.OrderLine{
			OrderID:         order.ID,
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.price,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase) VALUES ($1, $2, $3, $4) RETURNING id;`,
			ol.OrderID, ol.ProductID, ol.Quantity, ol.PriceAtPurchase,
		).Scan(&ol.ID)
		if err != nil {
			return nil, fmt.Errorf("store: CreateOrder failed to insert order line for product %d: %w", line.ProductID, err)
		}
		order.Lines = append(order.Lines, ol)
	}

	for _, line := range priced {
		result, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND stock >= $1;`,
			line.Quantity, line.ProductID,
		)
		if err != nil {
			return nil, fmt.Errorf("store: CreateOrder failed to decrement stock for product %d: %w", line.ProductID, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("store: CreateOrder failed to get rows affected for product %d: %w", line.ProductID, err)
		}
		if rowsAffected == 0 {
			return nil, &InsufficientStockError{ProductName: line.name, Available: 0}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to commit transaction: %w", err)
	}
	return order, nil
}

// mergeCartLines aggregates duplicate product ids so a product appears at
// most once per order, and returns the lines sorted by product id so every
// checkout acquires its row locks in the same order. Two concurrent checkouts
// with overlapping products in different cart orders would otherwise deadlock.
// Rejects quantities < 1.
func mergeCartLines(lines []domain.CartLine) ([]domain.CartLine, error) {
	merged := make([]domain.CartLine, 0, len(lines))
	index := make(map[int64]int, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}

func (s *PostgresStore) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1;`
	var o domain.Order
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.Address, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: GetOrderByID failed to scan row: %w", err)
	}

	lines, err := s.orderLines(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[o.ID]
	if o.Lines == nil {
		o.Lines = []domain.OrderLine{}
	}
	return &o, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC;`
	return s.queryOrders(ctx, query)
}

func (s *PostgresStore) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC;`
	return s.queryOrders(ctx, query, userID)
}

func (s *PostgresStore) queryOrders(ctx context.Context, query string, args ...interface{}) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.Address, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: failed to scan order row: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: order iteration error: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	lines, err := s.orderLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
		if orders[i].Lines == nil {
			orders[i].Lines = []domain.OrderLine{}
		}
	}
	return orders, nil
}

// orderLines fetches the lines for a batch of orders in one query, keyed by
// order id.
func (s *PostgresStore) orderLines(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, quantity, price_at_purchase
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id ASC, id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("store: failed to query order lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[int64][]domain.OrderLine, len(orderIDs))
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.PriceAtPurchase); err != nil {
			return nil, fmt.Errorf("store: failed to scan order line row: %w", err)
		}
		lines[l.OrderID] = append(lines[l.OrderID], l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: order line iteration error: %w", err)
	}
	return lines, nil
}

// SetOrderStatus moves an order to status. Status validity is checked at the
// API boundary; any defined status may follow any other.
func (s *PostgresStore) SetOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	query := `UPDATE orders SET status = $1 WHERE id = $2 RETURNING ` + orderColumns + `;`
	var o domain.Order
	err := s.db.QueryRowContext(ctx, query, status, id).Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.Address, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: SetOrderStatus failed to scan row: %w", err)
	}

	lines, err := s.orderLines(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[o.ID]
	if o.Lines == nil {
		o.Lines = []domain.OrderLine{}
	}
	return &o, nil
}

// DeleteOrder removes the order and its lines as a unit. Decremented stock is
// not restored; refund/restock is a policy this store does not implement.
func (s *PostgresStore) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: DeleteOrder failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1;`, id); err != nil {
		return fmt.Errorf("store: DeleteOrder failed to delete order lines: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("store: DeleteOrder failed to delete order: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteOrder failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: DeleteOrder failed to commit transaction: %w", err)
	}
	return nil
}
