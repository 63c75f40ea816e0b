package mysql

// -----------------------------------------------------------------------------
// CONTENT PAGES
// -----------------------------------------------------------------------------

const findPageSQL = `
SELECT id, kind, attrs, created_at, updated_at
FROM content_pages
WHERE kind = ?
ORDER BY created_at, id
LIMIT 1
`

const pageFieldsSQL = `SELECT name, pt, en, fr FROM content_fields WHERE page_id = ?`

const insertPageSQL = `
INSERT INTO content_pages (id, kind, attrs, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
`

const updatePageSQL = `UPDATE content_pages SET attrs = ?, updated_at = ? WHERE id = ?`

// Source writes never touch en/fr of an existing row.
const upsertPageFieldSQL = `
INSERT INTO content_fields (page_id, name, pt, en, fr)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE pt = VALUES(pt)
`

const savePageFieldSQL = `
INSERT INTO content_fields (page_id, name, pt, en, fr)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  en = COALESCE(NULLIF(VALUES(en), ''), en),
  fr = COALESCE(NULLIF(VALUES(fr), ''), fr)
`

// -----------------------------------------------------------------------------
// PROPERTIES
// -----------------------------------------------------------------------------

const propertyCols = `
  p.id, p.reference,
  p.title_pt, p.title_en, p.title_fr,
  p.description_pt, p.description_en, p.description_fr,
  p.payment_conditions_pt, p.payment_conditions_en, p.payment_conditions_fr,
  p.transaction_type, p.property_type, p.is_development, p.property_state, p.energy_class,
  p.price, p.total_area, p.built_area, p.useful_area,
  p.bedrooms, p.bathrooms, p.has_office, p.has_laundry, p.garage_spaces,
  p.construction_year, p.delivery_date,
  p.country, p.district, p.municipality, p.parish, p.address, p.region, p.city,
  p.image, p.images, p.features, p.why_choose,
  p.status, p.is_featured, p.team_member_id,
  p.created_at, p.updated_at`

const selectPropertySQL = "SELECT" + propertyCols + "\nFROM properties p\n"

const insertPropertySQL = `
INSERT INTO properties
  (id, reference,
   title_pt, title_en, title_fr,
   description_pt, description_en, description_fr,
   payment_conditions_pt, payment_conditions_en, payment_conditions_fr,
   transaction_type, property_type, is_development, property_state, energy_class,
   price, total_area, built_area, useful_area,
   bedrooms, bathrooms, has_office, has_laundry, garage_spaces,
   construction_year, delivery_date,
   country, district, municipality, parish, address, region, city,
   image, images, features, why_choose,
   status, is_featured, team_member_id,
   created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
   ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Derived columns are owned by the translation writer.
const updatePropertySQL = `
UPDATE properties SET
  reference = ?,
  title_pt = ?, description_pt = ?, payment_conditions_pt = ?,
  transaction_type = ?, property_type = ?, is_development = ?, property_state = ?, energy_class = ?,
  price = ?, total_area = ?, built_area = ?, useful_area = ?,
  bedrooms = ?, bathrooms = ?, has_office = ?, has_laundry = ?, garage_spaces = ?,
  construction_year = ?, delivery_date = ?,
  country = ?, district = ?, municipality = ?, parish = ?, address = ?, region = ?, city = ?,
  image = ?, images = ?, features = ?, why_choose = ?,
  status = ?, is_featured = ?, team_member_id = ?,
  updated_at = ?
WHERE id = ?
`

const deletePropertySQL = `DELETE FROM properties WHERE id = ?`

const relatedIDsSQL = `
SELECT related_id FROM property_related
WHERE property_id = ?
ORDER BY display_order, related_id
`

const deleteRelatedSQL = `DELETE FROM property_related WHERE property_id = ?`

const insertRelatedSQL = `INSERT INTO property_related (property_id, related_id, display_order) VALUES (?, ?, ?)`

// -----------------------------------------------------------------------------
// PROPERTY CHILDREN
// -----------------------------------------------------------------------------

const sectionCols = `id, property_id, name, images, display_order, created_at, updated_at`

const insertSectionSQL = `
INSERT INTO property_image_sections (id, property_id, name, images, display_order, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const updateSectionSQL = `
UPDATE property_image_sections SET name = ?, images = ?, display_order = ?, updated_at = ?
WHERE id = ?
`

const fileCols = `id, property_id, title, is_visible, filename, original_name, mime_type, file_size, url, display_order, created_at, updated_at`

const insertFileSQL = `
INSERT INTO property_files
  (id, property_id, title, is_visible, filename, original_name, mime_type, file_size, url, display_order, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateFileSQL = `
UPDATE property_files SET title = ?, is_visible = ?, display_order = ?, updated_at = ?
WHERE id = ?
`

// -----------------------------------------------------------------------------
// FRACTIONS
// -----------------------------------------------------------------------------

const columnCols = `id, property_id, column_key, label_pt, label_en, label_fr, data_type, select_options,
  is_visible, is_required, display_order, created_at, updated_at`

const insertColumnSQL = `
INSERT INTO fraction_columns
  (id, property_id, column_key, label_pt, label_en, label_fr, data_type, select_options,
   is_visible, is_required, display_order, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateColumnSQL = `
UPDATE fraction_columns SET
  label_pt = ?, data_type = ?, select_options = ?, is_visible = ?, is_required = ?,
  display_order = ?, updated_at = ?
WHERE id = ?
`

const fractionCols = `id, property_id,
  nature_pt, nature_en, nature_fr,
  fraction_type_pt, fraction_type_en, fraction_type_fr,
  floor_pt, floor_en, floor_fr,
  unit_pt, unit_en, unit_fr,
  gross_area, outdoor_area, parking_spaces, price, floor_plan,
  reservation_status, display_order, custom_data, created_at, updated_at`

const insertFractionSQL = `
INSERT INTO fractions
  (id, property_id,
   nature_pt, nature_en, nature_fr,
   fraction_type_pt, fraction_type_en, fraction_type_fr,
   floor_pt, floor_en, floor_fr,
   unit_pt, unit_en, unit_fr,
   gross_area, outdoor_area, parking_spaces, price, floor_plan,
   reservation_status, display_order, custom_data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateFractionSQL = `
UPDATE fractions SET
  nature_pt = ?, fraction_type_pt = ?, floor_pt = ?, unit_pt = ?,
  gross_area = ?, outdoor_area = ?, parking_spaces = ?, price = ?, floor_plan = ?,
  reservation_status = ?, display_order = ?, custom_data = ?, updated_at = ?
WHERE id = ?
`

// -----------------------------------------------------------------------------
// COLLECTIONS
// -----------------------------------------------------------------------------

const itemCols = `id, kind, title_pt, title_en, title_fr, description_pt, description_en, description_fr,
  display_order, created_at, updated_at`

const insertItemSQL = `
INSERT INTO collection_items
  (id, kind, title_pt, title_en, title_fr, description_pt, description_en, description_fr,
   display_order, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateItemSQL = `
UPDATE collection_items SET title_pt = ?, description_pt = ?, display_order = ?, updated_at = ?
WHERE id = ? AND kind = ?
`

const testimonialCols = `id, client_name, text_pt, text_en, text_fr, display_order, created_at, updated_at`

const insertTestimonialSQL = `
INSERT INTO testimonials (id, client_name, text_pt, text_en, text_fr, display_order, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const updateTestimonialSQL = `
UPDATE testimonials SET client_name = ?, text_pt = ?, display_order = ?, updated_at = ?
WHERE id = ?
`

const teamCols = `id, name, phone, email, photo, display_order, created_at, updated_at`

const insertTeamSQL = `
INSERT INTO team_members (id, name, phone, email, photo, display_order, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const updateTeamSQL = `
UPDATE team_members SET name = ?, phone = ?, email = ?, photo = ?, display_order = ?, updated_at = ?
WHERE id = ?
`

const newsletterCols = `id, title, content, category, reading_time, cover_image, created_at, updated_at`

const insertNewsletterSQL = `
INSERT INTO newsletters (id, title, content, category, reading_time, cover_image, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const updateNewsletterSQL = `
UPDATE newsletters SET title = ?, content = ?, category = ?, reading_time = ?, cover_image = ?, updated_at = ?
WHERE id = ?
`

const newsletterPropsSQL = `
SELECT property_id FROM newsletter_properties
WHERE newsletter_id = ?
ORDER BY display_order
`

const deleteNewsletterPropsSQL = `DELETE FROM newsletter_properties WHERE newsletter_id = ?`

const insertNewsletterPropSQL = `
INSERT INTO newsletter_properties (newsletter_id, property_id, display_order) VALUES (?, ?, ?)
`

// -----------------------------------------------------------------------------
// SITE CONFIG
// -----------------------------------------------------------------------------

const siteConfigCols = `id, satisfied_clients, rating, years_of_experience, properties_sold,
  episodes_published, seasons, guest_experts, euros_in_transactions, instagram_followers,
  presenter_image, podcast_image, created_at, updated_at`

const findSiteConfigSQL = `SELECT ` + siteConfigCols + ` FROM site_config ORDER BY created_at, id LIMIT 1`

const insertSiteConfigSQL = `
INSERT INTO site_config (` + siteConfigCols + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateSiteConfigSQL = `
UPDATE site_config SET
  satisfied_clients = ?, rating = ?, years_of_experience = ?, properties_sold = ?,
  episodes_published = ?, seasons = ?, guest_experts = ?, euros_in_transactions = ?,
  instagram_followers = ?, presenter_image = ?, podcast_image = ?, updated_at = ?
WHERE id = ?
`

// -----------------------------------------------------------------------------
// DESIRED ZONES
// -----------------------------------------------------------------------------

const zoneCols = `id, name, image, display_order, is_active, country, created_at, updated_at`

const insertZoneSQL = `
INSERT INTO desired_zones (` + zoneCols + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const updateZoneSQL = `
UPDATE desired_zones SET name = ?, image = ?, display_order = ?, is_active = ?, country = ?, updated_at = ?
WHERE id = ?
`
