package domain

import "errors"

// --- ERREURS DU DOMAINE ---
var (
	// ErrNotFound : l'id ne résout dans aucune collection connue.
	// État terminal valide (404 côté routes), pas une panne.
	ErrNotFound = errors.New("entity not found in any collection")

	// ErrUserNotFound : l'utilisateur acteur n'existe pas.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidAction : action d'interaction hors des six valeurs
	// reconnues. Rejetée avant toute I/O.
	ErrInvalidAction = errors.New("invalid interaction action")

	// ErrUpstreamUnavailable : toutes les collections ont échoué pendant
	// l'assemblage du feed. Seul cas d'erreur dure du pipeline de lecture.
	ErrUpstreamUnavailable = errors.New("all content collections unavailable")
)
