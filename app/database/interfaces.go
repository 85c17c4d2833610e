package database

// PublicationRepositoryInterface defines the operations the mirror
// pipeline and the status API need from the publications store.
type PublicationRepositoryInterface interface {
	IsPublished(identifier string) (bool, error)
	Record(publication Publication) error
	Count() (int, error)
	Recent(limit int) ([]Publication, error)
}
