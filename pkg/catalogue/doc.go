// Package catalogue holds the books served by the API.
//
// Store is implemented by the backends in the storage subpackage. Service
// wraps a Store for the HTTP handlers: it validates books, counts every
// storage call in books_api_db_operations_total and republishes the
// books_api_books_count gauge after each create, update or delete. Refresher
// republishes the gauge on a cron schedule.
package catalogue
