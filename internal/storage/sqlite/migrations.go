package sqlite

import "database/sql"

// schema sets up every table on startup. Money columns hold decimal strings.
// Orders must be created before order_items due to the foreign key.
const schema = `
CREATE TABLE IF NOT EXISTS durable_slots (
    owner TEXT NOT NULL,
    key TEXT NOT NULL,
    value BLOB NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (owner, key)
);

CREATE TABLE IF NOT EXISTS session_slots (
    session_id TEXT NOT NULL,
    key TEXT NOT NULL,
    value BLOB NOT NULL,
    expires_at INTEGER NOT NULL,
    PRIMARY KEY (session_id, key)
);

CREATE TABLE IF NOT EXISTS idempotency_keys (
    key TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    result BLOB,
    started_at INTEGER NOT NULL,
    completed_at INTEGER
);

CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    user_id TEXT,
    guest_id TEXT,
    customer_name TEXT NOT NULL,
    customer_email TEXT,
    customer_phone TEXT,
    restaurant_id TEXT NOT NULL,
    branch_number INTEGER NOT NULL,
    total_amount TEXT NOT NULL,
    payment_status TEXT NOT NULL,
    order_status TEXT NOT NULL,
    session_data TEXT NOT NULL,
    prep_metadata TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
    id TEXT PRIMARY KEY,
    order_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    item TEXT NOT NULL,
    price TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    extra_price TEXT NOT NULL,
    menu_item_id TEXT,
    images TEXT,
    custom_fields TEXT,
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    order_id TEXT NOT NULL,
    restaurant_id TEXT NOT NULL,
    user_id TEXT,
    guest_id TEXT,
    payment_method_id TEXT,
    base_amount TEXT NOT NULL,
    tip_amount TEXT NOT NULL,
    iva_tip TEXT NOT NULL,
    subtotal_for_commission TEXT NOT NULL,
    commission_total TEXT NOT NULL,
    commission_client TEXT NOT NULL,
    commission_restaurant TEXT NOT NULL,
    iva_commission_client TEXT NOT NULL,
    iva_commission_restaurant TEXT NOT NULL,
    client_charge TEXT NOT NULL,
    restaurant_charge TEXT NOT NULL,
    total_amount_charged TEXT NOT NULL,
    commission_rate_percent TEXT NOT NULL,
    installment_months INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cart_items (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    restaurant_id TEXT NOT NULL,
    menu_item_id TEXT NOT NULL,
    name TEXT NOT NULL,
    price TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    extra_price TEXT NOT NULL,
    custom_fields TEXT,
    images TEXT,
    added_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS branches (
    restaurant_id TEXT NOT NULL,
    branch_number INTEGER NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    address TEXT,
    PRIMARY KEY (restaurant_id, branch_number)
);

CREATE TABLE IF NOT EXISTS menu_items (
    restaurant_id TEXT NOT NULL,
    branch_number INTEGER NOT NULL,
    id TEXT NOT NULL,
    section_id TEXT NOT NULL,
    section_name TEXT NOT NULL,
    name TEXT NOT NULL,
    price TEXT NOT NULL,
    is_available INTEGER,
    PRIMARY KEY (restaurant_id, branch_number, id)
);

CREATE TABLE IF NOT EXISTS payment_methods (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    last_four TEXT NOT NULL,
    card_brand TEXT NOT NULL,
    card_type TEXT NOT NULL,
    is_default INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_slots_expires_at ON session_slots(expires_at);
CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_orders_restaurant_id ON orders(restaurant_id);
CREATE INDEX IF NOT EXISTS idx_transactions_order_id ON transactions(order_id);
CREATE INDEX IF NOT EXISTS idx_cart_items_owner ON cart_items(owner, restaurant_id);
CREATE INDEX IF NOT EXISTS idx_payment_methods_owner ON payment_methods(owner);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
