// Package handlers implements the HTTP endpoints of the Books API.
//
// Routes:
//
//	GET    /                               landing page (HTML)
//	GET    /books                          all books
//	POST   /books                          create a book (JSON only), 201
//	GET    /books/{id}                     one book, 404 JSON error if missing
//	PUT    /books/{id}                     replace a book
//	DELETE /books/{id}                     delete a book, 204
//	GET    /api/v2/resources/books/all     all books
//	GET    /api/v2/resources/books         filter by id, published, author
//	POST   /api/v2/resources/books         create a book, 200
//
// Unknown paths get the HTML 404 page. Storage failures answer 500 and are
// counted in books_api_exceptions_total.
package handlers
