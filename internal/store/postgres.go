package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pinggolf/m3-planning-tools/internal/domain"
)

// PostgresStore implements Store against a Postgres database, following
// the teacher's internal/db conventions: plain database/sql, prepared
// statements, $N placeholders, explicit transactions with deferred
// rollback.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an already-opened *sql.DB.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func scanMachine(row interface{ Scan(...interface{}) error }) (*domain.Machine, error) {
	var (
		m          domain.Machine
		pseudonym  sql.NullString
		status     string
		shareRolls sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Name, &pseudonym, &m.Inks, &m.FunctionalInks,
		&m.AvgVelocity, &m.TimeChangeUnits, &status, &shareRolls); err != nil {
		return nil, err
	}
	m.Pseudonym = pseudonym.String
	m.Status = domain.MachineStatus(status)
	m.ShareRolls = parseMachineIDs(shareRolls.String)
	return &m, nil
}

func (s *PostgresStore) GetMachineByID(ctx context.Context, id int64) (*domain.Machine, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, pseudonym, inks, functional_inks, avg_velocity, time_change_units, status, share_rolls
		FROM machines WHERE id = $1`, id)
	m, err := scanMachine(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get machine by id: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) GetMachineByNameOrPseudonym(ctx context.Context, name string) (*domain.Machine, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, pseudonym, inks, functional_inks, avg_velocity, time_change_units, status, share_rolls
		FROM machines WHERE name = $1 OR pseudonym = $1`, name)
	m, err := scanMachine(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get machine by name or pseudonym: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) GetAllMachineStatus(ctx context.Context) ([]*domain.Machine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, pseudonym, inks, functional_inks, avg_velocity, time_change_units, status, share_rolls
		FROM machines`)
	if err != nil {
		return nil, fmt.Errorf("get all machine status: %w", err)
	}
	defer rows.Close()

	var machines []*domain.Machine
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

func (s *PostgresStore) UpdateMachineStatus(ctx context.Context, id int64, status *domain.MachineStatus, functionalInks *int) (bool, error) {
	if status == nil && functionalInks == nil {
		m, err := s.GetMachineByID(ctx, id)
		return m != nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if status != nil {
		res, err := tx.ExecContext(ctx, `UPDATE machines SET status = $1, updated_at = NOW() WHERE id = $2`, string(*status), id)
		if err != nil {
			return false, fmt.Errorf("update machine status: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return false, nil
		}
	}
	if functionalInks != nil {
		res, err := tx.ExecContext(ctx, `UPDATE machines SET functional_inks = $1, updated_at = NOW() WHERE id = $2`, *functionalInks, id)
		if err != nil {
			return false, fmt.Errorf("update machine functional inks: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return false, nil
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit machine status update: %w", err)
	}
	return true, nil
}

func scanOrder(row interface{ Scan(...interface{}) error }) (*domain.Order, error) {
	var (
		o                  domain.Order
		deliveryDate       sql.NullTime
		forcedDeliveryDate sql.NullTime
		daysRemaining      sql.NullInt64
		colors             sql.NullString
		materials          sql.NullString
		customerData       sql.NullString
		machineID          sql.NullInt64
	)
	if err := row.Scan(&o.ID, &machineID, &o.ProductName, &o.Status, &deliveryDate, &forcedDeliveryDate,
		&o.PlanningPriority, &daysRemaining, &o.TotalMeters, &o.NumLabels, &colors, &materials,
		&customerData, &o.TotalNetWeight); err != nil {
		return nil, err
	}
	if deliveryDate.Valid {
		o.DeliveryDate = &deliveryDate.Time
	}
	if forcedDeliveryDate.Valid {
		o.ForcedDeliveryDate = &forcedDeliveryDate.Time
	}
	if daysRemaining.Valid {
		d := int(daysRemaining.Int64)
		o.DaysRemaining = &d
	}
	o.ColorsJSON = colors.String
	o.MaterialsJSON = materials.String
	o.CustomerDataJSON = customerData.String
	o.MachineID = machineID.Int64
	return &o, nil
}

const schedulableOrderColumns = `
	id, assigned_machine_id, product_name, status, delivery_date, forced_delivery_date,
	planning_priority, days_remaining, total_print_meters, num_labels,
	colors, materials, customer_data, total_net_weight`

func (s *PostgresStore) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+schedulableOrderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) GetSchedulableOrdersForMachine(ctx context.Context, machineID int64) ([]*domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+schedulableOrderColumns+`
		FROM orders WHERE assigned_machine_id = $1 AND status <= 5`, machineID)
	if err != nil {
		return nil, fmt.Errorf("get schedulable orders for machine: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *PostgresStore) GetSchedulableOrdersForAllMachines(ctx context.Context) ([]*domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+schedulableOrderColumns+` FROM orders WHERE status <= 5`)
	if err != nil {
		return nil, fmt.Errorf("get schedulable orders for all machines: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *PostgresStore) GetSchedulableOrdersByIDs(ctx context.Context, machineID int64) ([]*domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.assigned_machine_id, o.product_name, o.status, o.delivery_date, o.forced_delivery_date,
			o.planning_priority, o.days_remaining, o.total_print_meters, o.num_labels,
			o.colors, o.materials, o.customer_data, o.total_net_weight
		FROM orders o
		JOIN production_queue q ON q.order_id = o.id
		WHERE q.machine_id = $1
		ORDER BY q.production_order ASC`, machineID)
	if err != nil {
		return nil, fmt.Errorf("get schedulable orders by ids: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func scanOrders(rows *sql.Rows) ([]*domain.Order, error) {
	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *PostgresStore) GetQueueItemByOrderID(ctx context.Context, orderID int64) (*domain.QueueRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, order_id, machine_id, production_order, reason, probable_delivery_date,
			setup_min, inter_label_changes_min, print_min, buffer_min, total_min, created_at, updated_at
		FROM production_queue WHERE order_id = $1`, orderID)
	qr, err := scanQueueRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item by order id: %w", err)
	}
	return qr, nil
}

func (s *PostgresStore) GetProductionQueueForMachine(ctx context.Context, machineID int64) ([]*domain.QueueRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, machine_id, production_order, reason, probable_delivery_date,
			setup_min, inter_label_changes_min, print_min, buffer_min, total_min, created_at, updated_at
		FROM production_queue WHERE machine_id = $1 ORDER BY production_order ASC`, machineID)
	if err != nil {
		return nil, fmt.Errorf("get production queue for machine: %w", err)
	}
	defer rows.Close()

	var queue []*domain.QueueRow
	for rows.Next() {
		qr, err := scanQueueRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue row: %w", err)
		}
		queue = append(queue, qr)
	}
	return queue, rows.Err()
}

func scanQueueRow(row interface{ Scan(...interface{}) error }) (*domain.QueueRow, error) {
	var qr domain.QueueRow
	var reason sql.NullString
	if err := row.Scan(&qr.QueueRowID, &qr.OrderID, &qr.MachineID, &qr.ProductionOrder, &reason,
		&qr.ProbableDeliveryDate, &qr.SetupMin, &qr.InterLabelChangesMin, &qr.PrintMin,
		&qr.BufferMin, &qr.TotalMin, &qr.CreatedAt, &qr.UpdatedAt); err != nil {
		return nil, err
	}
	qr.Reason = reason.String
	return &qr, nil
}

// OverwriteMachineSchedule atomically deletes the prior queue rows for
// machineID and inserts rows, within one transaction.
func (s *PostgresStore) OverwriteMachineSchedule(ctx context.Context, machineID int64, rows []*domain.QueueRow) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM production_queue WHERE machine_id = $1`, machineID); err != nil {
		return false, fmt.Errorf("delete prior queue rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO production_queue (
			order_id, machine_id, production_order, reason, probable_delivery_date,
			setup_min, inter_label_changes_min, print_min, buffer_min, total_min,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`)
	if err != nil {
		return false, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.OrderID, machineID, r.ProductionOrder, r.Reason,
			r.ProbableDeliveryDate, r.SetupMin, r.InterLabelChangesMin, r.PrintMin, r.BufferMin, r.TotalMin); err != nil {
			return false, fmt.Errorf("insert queue row for order %d: %w", r.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit schedule overwrite: %w", err)
	}
	return true, nil
}

// UpdateProductionQueue bulk-updates production_order ranks without
// touching any other column.
func (s *PostgresStore) UpdateProductionQueue(ctx context.Context, updates []domain.QueueUpdate) (bool, error) {
	if len(updates) == 0 {
		return true, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE production_queue SET production_order = $1, updated_at = NOW() WHERE id = $2`)
	if err != nil {
		return false, fmt.Errorf("prepare update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.ProductionOrder, u.QueueRowID); err != nil {
			return false, fmt.Errorf("update queue row %d: %w", u.QueueRowID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit production queue update: %w", err)
	}
	return true, nil
}

// UpdateQueueDatesAndTimes bulk-updates the probable delivery date and
// the five duration fields, without touching production_order.
func (s *PostgresStore) UpdateQueueDatesAndTimes(ctx context.Context, updates []domain.QueueDateUpdate) (bool, error) {
	if len(updates) == 0 {
		return true, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE production_queue
		SET probable_delivery_date = $1, setup_min = $2, inter_label_changes_min = $3,
			print_min = $4, buffer_min = $5, total_min = $6, updated_at = NOW()
		WHERE id = $7`)
	if err != nil {
		return false, fmt.Errorf("prepare update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.ProbableDeliveryDate, u.SetupMin, u.InterLabelChangesMin,
			u.PrintMin, u.BufferMin, u.TotalMin, u.QueueRowID); err != nil {
			return false, fmt.Errorf("update queue dates for row %d: %w", u.QueueRowID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit queue dates update: %w", err)
	}
	return true, nil
}

// parseMachineIDs parses the share_rolls JSON array column (list of
// machine ids, possibly encoded as strings) into int64 ids, tolerating
// malformed input by returning nil.
func parseMachineIDs(raw string) []int64 {
	if raw == "" {
		return nil
	}
	var rawItems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &rawItems); err != nil {
		return nil
	}

	ids := make([]int64, 0, len(rawItems))
	for _, item := range rawItems {
		var asInt int64
		if err := json.Unmarshal(item, &asInt); err == nil {
			ids = append(ids, asInt)
			continue
		}
		var asStr string
		if err := json.Unmarshal(item, &asStr); err == nil {
			if parsed, err := strconv.ParseInt(asStr, 10, 64); err == nil {
				ids = append(ids, parsed)
			}
		}
	}
	return ids
}
