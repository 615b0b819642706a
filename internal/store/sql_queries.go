package store

const (
	replicaColumns = `local_id, resource, event_slug, server_id, payload, secret, order_code, email, item, variation, subevent, status, name, position, layout, blocked`

	listReplicaRecords = `SELECT ` + replicaColumns + `
		FROM replica_records
		WHERE resource = ? AND event_slug = ?;`

	getReplicaByServerID = `SELECT ` + replicaColumns + `
		FROM replica_records
		WHERE resource = ? AND event_slug = ? AND server_id = ?;`

	getReplicaBySecret = `SELECT ` + replicaColumns + `
		FROM replica_records
		WHERE resource = ? AND event_slug = ? AND secret = ?;`

	getReplicaByOrderCode = `SELECT ` + replicaColumns + `
		FROM replica_records
		WHERE resource = ? AND event_slug = ? AND order_code = ?;`

	insertReplicaRecord = `INSERT INTO replica_records (
			resource,
			event_slug,
			server_id,
			payload,
			secret,
			order_code,
			email,
			item,
			variation,
			subevent,
			status,
			name,
			position,
			layout,
			blocked
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	// layout is owned by the ticket layout projection and deliberately not
	// touched by payload updates.
	updateReplicaRecord = `UPDATE replica_records
		SET payload = ?,
			secret = ?,
			order_code = ?,
			email = ?,
			item = ?,
			variation = ?,
			subevent = ?,
			status = ?,
			name = ?,
			position = ?,
			blocked = ?
		WHERE local_id = ?;`

	clearItemLayouts = `UPDATE replica_records
		SET layout = 0
		WHERE resource = 'items' AND event_slug = ?;`

	assignItemLayout = `UPDATE replica_records
		SET layout = ?
		WHERE resource = 'items' AND event_slug = ? AND server_id = ?;`

	insertCheckIn = `INSERT INTO checkins (event_slug, list_id, position_id, secret, datetime, type, source, server_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);`

	countCheckIns = `SELECT COUNT(*) FROM checkins
		WHERE event_slug = ? AND list_id = ? AND secret = ?;`

	getFirstCheckIn = `SELECT id, event_slug, list_id, position_id, secret, datetime, type, source, server_id
		FROM checkins
		WHERE event_slug = ? AND list_id = ? AND secret = ? AND type = 'entry'
		ORDER BY datetime ASC
		LIMIT 1;`

	deleteServerCheckInsForPosition = `DELETE FROM checkins
		WHERE event_slug = ? AND position_id = ? AND source = 'server';`

	deleteConfirmedLocalCheckIns = `DELETE FROM checkins
		WHERE event_slug = ? AND position_id = ? AND source = 'local' AND list_id = ?;`

	insertQueuedCheckIn = `INSERT INTO queued_checkins (event_slug, secret, list_id, datetime, nonce, type, answers)
		VALUES (?, ?, ?, ?, ?, ?, ?);`

	listPendingCheckIns = `SELECT id, event_slug, secret, list_id, datetime, nonce, type, answers
		FROM queued_checkins
		WHERE event_slug = ?
		ORDER BY id ASC;`

	countPendingCheckIns = `SELECT COUNT(*) FROM queued_checkins
		WHERE event_slug = ? AND list_id = ? AND secret = ?;`

	deleteQueuedCheckIn = `DELETE FROM queued_checkins WHERE id = ?;`

	insertReceipt = `INSERT INTO receipts (event_slug, server_id, open, payload, created)
		VALUES (?, ?, ?, ?, ?);`

	listUnsyncedReceipts = `SELECT id, event_slug, server_id, open, payload, created
		FROM receipts
		WHERE event_slug = ? AND open = 0 AND server_id = 0
		ORDER BY id ASC;`

	markReceiptSynced = `UPDATE receipts SET server_id = ? WHERE id = ?;`

	insertClosing = `INSERT INTO closings (event_slug, server_id, open, payload, created)
		VALUES (?, ?, ?, ?, ?);`

	listUnsyncedClosings = `SELECT id, event_slug, server_id, open, payload, created
		FROM closings
		WHERE event_slug = ? AND open = 0 AND server_id = 0
		ORDER BY id ASC;`

	markClosingSynced = `UPDATE closings SET server_id = ? WHERE id = ?;`

	getResourceStatus = `SELECT id, resource, event_slug, status, cursor, meta
		FROM resource_sync_status
		WHERE resource = ? AND event_slug = ?;`

	upsertResourceStatus = `INSERT INTO resource_sync_status (resource, event_slug, status, cursor, meta)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (resource, event_slug) DO UPDATE SET
			status = excluded.status,
			cursor = excluded.cursor,
			meta = excluded.meta;`

	deleteResourceStatus = `DELETE FROM resource_sync_status
		WHERE resource = ? AND event_slug = ?;`

	getSyncState = `SELECT value FROM sync_state WHERE key = ?;`

	upsertSyncState = `INSERT INTO sync_state (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value;`
)
