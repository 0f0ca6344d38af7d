package domain

// L'inférence du kind est une fonction pure de l'ensemble des champs du
// document brut. Elle ne dépend JAMAIS de la collection d'origine : les
// données legacy contiennent des documents mal rangés, et deux documents
// de même forme doivent recevoir le même kind où qu'ils soient stockés.

// Champs candidats par famille. L'ordre des règles est porteur de sens,
// celui des champs dans une famille ne l'est pas (simple présence).
var (
	categoryFields     = []string{"catégorie", "categorie", "category"}
	startDateFields    = []string{"date_debut", "date_début", "start_date", "startDate"}
	menuFields         = []string{"menu", "menus", "menu_items", "structured_data"}
	openingHoursFields = []string{"opening_hours", "horaires", "horaires_ouverture", "business_hours"}
	eventsCountFields  = []string{"nombre_evenements", "nombre_événements", "events_count"}
	embeddedEvtFields  = []string{"evenements", "événements", "events"}
)

type kindRule struct {
	kind  Kind
	match func(raw RawDocument) bool
}

// kindRules est la chaîne de prédicats, évaluée dans l'ordre, premier
// match gagnant. Déclarée en donnée pour que la priorité soit auditable
// et testable isolément.
var kindRules = []kindRule{
	{
		kind: KindLeisureEvent,
		match: func(raw RawDocument) bool {
			return hasAnyField(raw, categoryFields) && hasAnyField(raw, startDateFields)
		},
	},
	{
		kind: KindRestaurant,
		match: func(raw RawDocument) bool {
			return hasAnyField(raw, menuFields) || hasAnyField(raw, openingHoursFields)
		},
	},
	{
		kind: KindLeisureProducer,
		match: func(raw RawDocument) bool {
			return hasAnyField(raw, eventsCountFields) || hasAnyField(raw, embeddedEvtFields)
		},
	},
}

// InferKind applique la chaîne de prédicats. Un document qui ne matche
// aucune règle (y compris le corpus mal formé) retombe sur post.
func InferKind(raw RawDocument) Kind {
	for _, rule := range kindRules {
		if rule.match(raw) {
			return rule.kind
		}
	}
	return KindPost
}

func hasAnyField(raw RawDocument, candidates []string) bool {
	for _, key := range candidates {
		if v, ok := raw[key]; ok && v != nil {
			return true
		}
	}
	return false
}
