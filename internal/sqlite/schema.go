package sqlite

// Schema DDL. Every collection shares one documents table; the JSON body is
// queried with json_extract.
const (
	createDocuments = `CREATE TABLE documents (
    collection TEXT NOT NULL,
    doc_id TEXT NOT NULL,
    data TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (collection, doc_id)
);`

	createDocumentsIndex = `CREATE INDEX idx_documents_collection ON documents (collection);`
)

// schemaStatements lists the DDL executed on Attach in order.
var schemaStatements = []string{
	createDocuments,
	createDocumentsIndex,
}
