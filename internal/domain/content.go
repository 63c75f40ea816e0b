package domain

import (
	"sort"
	"time"
)

type PageKind string

const (
	PageAbout   PageKind = "about"
	PagePodcast PageKind = "podcast"
	PageSell    PageKind = "sell"
)

// Page is a content singleton: at most one live row per kind.
type Page struct {
	ID        string            `json:"id"`
	Kind      PageKind          `json:"kind"`
	Texts     map[string]*Text  `json:"texts"`
	Attrs     map[string]string `json:"attrs"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (p *Page) Target() TranslationTarget { return TranslationTarget{Entity: "pages", ID: p.ID} }

// TextFields follows the schema order so translation and storage are stable.
func (p *Page) TextFields() []FieldRef {
	s, ok := SchemaFor(p.Kind)
	if !ok {
		return nil
	}
	if p.Texts == nil {
		p.Texts = map[string]*Text{}
	}
	out := make([]FieldRef, 0, len(s.TextFields))
	for _, name := range s.TextFields {
		t, ok := p.Texts[name]
		if !ok {
			t = &Text{}
			p.Texts[name] = t
		}
		out = append(out, FieldRef{Name: name, Text: t})
	}
	return out
}

// PagePatch is a partial update. Only source values are writable.
type PagePatch struct {
	Texts map[string]string `json:"texts"`
	Attrs map[string]string `json:"attrs"`
}

// TouchedTexts lists the text fields named by the patch, sorted.
func (pp PagePatch) TouchedTexts() []string {
	out := make([]string, 0, len(pp.Texts))
	for k := range pp.Texts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type PageSchema struct {
	Kind       PageKind
	TextFields []string
	AttrFields []string
	Defaults   map[string]string // source-language defaults and attribute defaults
}

func (s PageSchema) HasText(name string) bool { return contains(s.TextFields, name) }
func (s PageSchema) HasAttr(name string) bool { return contains(s.AttrFields, name) }

// Validate rejects fields the schema does not declare.
func (s PageSchema) Validate(pp PagePatch) error {
	for k := range pp.Texts {
		if !s.HasText(k) {
			return Invalid(k, "unknown text field for %s", s.Kind)
		}
	}
	for k := range pp.Attrs {
		if !s.HasAttr(k) {
			return Invalid(k, "unknown attribute for %s", s.Kind)
		}
	}
	return nil
}

// NewPage builds a fresh singleton from the schema defaults.
func (s PageSchema) NewPage(id string, now time.Time) *Page {
	p := &Page{ID: id, Kind: s.Kind, Texts: map[string]*Text{}, Attrs: map[string]string{}, CreatedAt: now, UpdatedAt: now}
	for _, f := range s.TextFields {
		p.Texts[f] = &Text{PT: s.Defaults[f]}
	}
	for _, a := range s.AttrFields {
		p.Attrs[a] = s.Defaults[a]
	}
	return p
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

var schemas = map[PageKind]PageSchema{
	PageAbout:   aboutSchema,
	PagePodcast: podcastSchema,
	PageSell:    sellSchema,
}

func SchemaFor(k PageKind) (PageSchema, bool) {
	s, ok := schemas[k]
	return s, ok
}

func PageKinds() []PageKind { return []PageKind{PageAbout, PagePodcast, PageSell} }

var aboutSchema = PageSchema{
	Kind: PageAbout,
	TextFields: []string{
		"page_title", "page_subtitle", "description_1", "description_2",
		"culture_label", "culture_title",
		"services_label", "services_title",
		"team_label", "team_title", "team_description",
		"television_label", "television_title", "television_description",
	},
	AttrFields: []string{"youtube_link_1", "youtube_link_2", "youtube_link_3"},
	Defaults: map[string]string{
		"page_title":             "Sobre Nós",
		"page_subtitle":          "Especialistas em Imóveis de Luxo em Portugal",
		"description_1":          "Na Agência Douro, a nossa missão é transformar sonhos em realidade, sempre com um compromisso inabalável com a transparência e a responsabilidade. A nossa equipa é composta por profissionais altamente qualificados, prontos para o ajudar a realizar o sonho da sua vida.",
		"description_2":          "A atuar no mercado nacional e internacional, a Agência Douro é reconhecida pela sua transparência, responsabilidade e compromisso em proporcionar tranquilidade em cada transação. Seja para habitação própria ou para investimento, oferecemos um apoio completo para garantir que o seu negócio seja seguro e eficaz.",
		"culture_label":          "Nossa Identidade",
		"culture_title":          "A Nossa Cultura",
		"services_label":         "O Que Oferecemos",
		"services_title":         "Os Nossos Serviços",
		"team_label":             "Conheça a Nossa Equipa",
		"team_title":             "A Nossa Equipa",
		"team_description":       "A nossa equipa é composta por profissionais altamente qualificados e experientes, dedicados a proporcionar o melhor serviço e a transformar os seus sonhos em realidade.",
		"television_label":       "Na Televisão",
		"television_title":       "Veja-nos na Televisão",
		"television_description": "Confira as nossas aparições e entrevistas em programas de televisão.",
	},
}

var podcastSchema = PageSchema{
	Kind: PagePodcast,
	TextFields: []string{
		"header_label", "page_title", "page_subtitle", "page_description",
		"topics_label", "topics_title",
		"episodes_label", "episodes_title", "episodes_description",
		"episode_1_title", "episode_2_title", "episode_3_title",
		"episode_4_title", "episode_5_title", "episode_6_title",
		"host_label", "host_description",
	},
	AttrFields: []string{
		"episode_1_url", "episode_2_url", "episode_3_url",
		"episode_4_url", "episode_5_url", "episode_6_url",
		"host_name",
	},
	Defaults: map[string]string{
		"header_label":         "Conteúdo Exclusivo",
		"page_title":           "Podcast Norte Imobiliário e Business",
		"page_subtitle":        "Conversas sobre o Mercado Imobiliário de Luxo em Portugal",
		"page_description":     "Um podcast dedicado a discutir tendências, desafios e oportunidades do mercado imobiliário de luxo em Portugal, com a participação de especialistas e profissionais do setor.",
		"topics_label":         "Temas & Insights",
		"topics_title":         "O Que Abordamos",
		"episodes_label":       "Assista Agora",
		"episodes_title":       "Episódios em Destaque",
		"episodes_description": "Confira os nossos episódios mais assistidos e fique por dentro das conversas que estão a transformar o mercado imobiliário de luxo.",
		"episode_1_url":        "https://www.youtube.com/watch?v=yjNfYWkTiP0",
		"episode_1_title":      "4ª Temporada – Episódio 2 - financiamento habitacional com a Paula Coutinho.",
		"episode_2_url":        "https://www.youtube.com/watch?v=fHzsVfUTOFg",
		"episode_2_title":      "Temporada 2ª- episódio 03. Dra. Carolina Carvalho, vistos & cidadania sem enrolação.",
		"episode_3_url":        "https://www.youtube.com/watch?v=NbOWR3llnVk",
		"episode_3_title":      "Temporada 3ª- Episódio 02, com Ruben Marques – cofundador do Querido Condomínio",
		"episode_4_url":        "https://www.youtube.com/watch?v=A6XYFBiICMo",
		"episode_4_title":      "Temporada 3ª - Episodio 01 Rocha Automóveis - Porto -Portugal",
		"episode_5_url":        "https://www.youtube.com/watch?v=93GZkfX9U-U",
		"episode_5_title":      "5ª temporada - 2º Episódio - Dra. Renata Dias, médica dentista com formação reconhecida em Portugal.",
		"episode_6_url":        "https://www.youtube.com/watch?v=wc2neJE36hc",
		"episode_6_title":      "Temporada 4ª - episódio 01 - Filipe Mello, CEO da ENG&COOP, uma trajetória de sucesso.",
		"host_label":           "Apresentadora",
		"host_name":            "Vânia Fernandes",
		"host_description":     "Vânia Fernandes é uma profissional reconhecida do setor imobiliário no Norte de Portugal, com mais de 15 anos de experiência em imóveis residenciais e comerciais.",
	},
}

var sellSchema = PageSchema{
	Kind: PageSell,
	TextFields: []string{
		"hero_badge", "hero_title", "hero_description",
		"form_title", "form_submit",
		"stats_badge", "stats_title", "stats_description",
		"stats_reach_label", "stats_reach_description",
		"stats_clients_label", "stats_clients_description",
		"stats_locations_label", "stats_locations_description",
		"stats_experience_label", "stats_experience_description",
		"marketing_badge", "marketing_title", "marketing_description",
		"marketing_website_title", "marketing_website_description", "marketing_website_stat",
		"marketing_newsletter_title", "marketing_newsletter_description", "marketing_newsletter_stat",
		"marketing_agencies_title", "marketing_agencies_description", "marketing_agencies_stat",
		"marketing_media_title", "marketing_media_description", "marketing_media_stat",
	},
	Defaults: map[string]string{
		"hero_badge":                       "Vender o seu imóvel",
		"hero_title":                       "Solicite uma avaliação gratuita do seu imóvel",
		"hero_description":                 "A nossa equipa de especialistas está pronta para avaliar o seu imóvel e ajudá-lo a obter o melhor valor no mercado. Preencha o formulário e receba uma avaliação profissional sem compromisso.",
		"form_title":                       "Descreva o seu imóvel",
		"form_submit":                      "Solicitar Avaliação",
		"stats_badge":                      "O nosso alcance",
		"stats_title":                      "Uma rede global ao seu serviço",
		"stats_description":                "A Agência Douro faz parte de uma rede imobiliária de excelência, garantindo que o seu imóvel chegue aos compradores certos em Portugal e no mundo.",
		"stats_reach_label":                "Alcance Global",
		"stats_reach_description":          "Presença em múltiplos países e continentes",
		"stats_clients_label":              "Clientes Ativos",
		"stats_clients_description":        "Base de clientes qualificados e interessados",
		"stats_locations_label":            "Localizações",
		"stats_locations_description":      "Cobertura em Portugal e internacional",
		"stats_experience_label":           "Anos de Experiência",
		"stats_experience_description":     "Conhecimento profundo do mercado",
		"marketing_badge":                  "Como promovemos",
		"marketing_title":                  "Canais de promoção do seu imóvel",
		"marketing_description":            "Utilizamos uma estratégia de marketing multicanal para garantir a máxima exposição do seu imóvel aos potenciais compradores.",
		"marketing_website_title":          "Website",
		"marketing_website_description":    "Divulgação no nosso portal imobiliário de alta qualidade",
		"marketing_website_stat":           "+50.000 visitantes/mês",
		"marketing_newsletter_title":       "Newsletter",
		"marketing_newsletter_description": "Envio para a nossa base de clientes qualificados",
		"marketing_newsletter_stat":        "+10.000 subscritores",
		"marketing_agencies_title":         "Agências Parceiras",
		"marketing_agencies_description":   "Exposição em vitrinas e escritórios",
		"marketing_agencies_stat":          "Rede de parceiros",
		"marketing_media_title":            "Redes Sociais",
		"marketing_media_description":      "Divulgação nas principais plataformas digitais",
		"marketing_media_stat":             "Alto engagement",
	},
}

// Clone deep-copies the text and attribute maps.
func (p *Page) Clone() *Page {
	c := *p
	c.Texts = make(map[string]*Text, len(p.Texts))
	for k, t := range p.Texts {
		if t != nil {
			tc := *t
			c.Texts[k] = &tc
		}
	}
	c.Attrs = make(map[string]string, len(p.Attrs))
	for k, v := range p.Attrs {
		c.Attrs[k] = v
	}
	return &c
}
