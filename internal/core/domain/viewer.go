package domain

// ViewerContext est fourni par la couche appelante (route). Le moteur ne
// possède pas le graphe social : il le reçoit déjà résolu.
type ViewerContext struct {
	ViewerID  string
	Following []string
	Followers []string
}

// FollowsAnyOf compte les membres de set suivis par le viewer.
func (v ViewerContext) FollowsAnyOf(set []string) int {
	if len(v.Following) == 0 || len(set) == 0 {
		return 0
	}
	followed := make(map[string]struct{}, len(v.Following))
	for _, id := range v.Following {
		followed[id] = struct{}{}
	}
	n := 0
	for _, id := range set {
		if _, ok := followed[id]; ok {
			n++
		}
	}
	return n
}

// FeedRequest décrit un assemblage de feed.
type FeedRequest struct {
	Kinds               []Kind // vide = toutes les collections
	Limit               int
	Offset              int
	PrioritizeFollowers bool
}

// FeedPage : résultat classé et tronqué. Degraded signale qu'une collection
// seule source d'un filtre de type explicite a échoué (résultat partiel,
// pas une erreur dure).
type FeedPage struct {
	Items    []*CanonicalDocument
	Degraded bool
}

// SearchRequest décrit une recherche plein-texte naïve (sous-chaîne).
type SearchRequest struct {
	Query string
	Kinds []Kind // vide = toutes
	Page  int    // 1-based
	Limit int
}

// SearchPage reproduit le contrat legacy {results, total, totalPages}.
type SearchPage struct {
	Results    []*CanonicalDocument
	Total      int64
	TotalPages int64
}
