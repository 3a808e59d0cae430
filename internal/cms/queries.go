package cms

// GROQ queries. Localized fields are fetched as stored (internationalized
// arrays) and resolved per request; references are dereferenced to
// {_id, title} so facet values survive as plain names.

const workflowProjection = `{
	_key,
	name,
	"steps": steps[] {
		_key,
		stepNumber,
		title,
		shortDescription,
		"image": image.asset->url,
		imageAlt
	}
}`

const toolProjection = `{
	_id,
	_createdAt,
	_updatedAt,
	title,
	toolsentence,
	description,
	about,
	advantages,
	disadvantages,
	limitations,
	isFavourite,
	isExperimental,
	link,
	privacyPolicy,
	youtubeLink,
	"uses": uses[]->{ _id, title },
	"setups": setups[]->{ _id, title },
	"pricings": pricings[]->{ _id, title },
	"licenses": licenses[]->{ _id, title },
	"generationTimes": generationTimes[]->{ _id, title },
	"inputs": inputs[]->{ _id, title },
	"outputs": outputs[]->{ _id, title },
	"dataStorageLocations": dataStorageLocations[]->{ _id, title },
	"tasks": tasks[]->{ _id, title },
	"profiles": profiles[]->{ _id, title },
	"psychoEducationalProfiles": psychoEducationalProfiles[]->{ _id, title },
	"therapyTypes": therapyTypes[]->{ _id, title },
	image,
	showcaseImages,
	isAiupdateFavourite,
	isPsyaidFavourite,
	"aiupdateWorkflows": aiupdateWorkflows[] ` + workflowProjection + `,
	"psyaidWorkflows": psyaidWorkflows[] ` + workflowProjection + `
}`

const (
	queryTools = `*[_type == "tool" && !(_id in path("drafts.**"))] ` + toolProjection

	queryTool = `*[_type == "tool" && !(_id in path("drafts.**")) && (
	title[_key == "nl"][0].value == $title ||
	title[_key == "en"][0].value == $title ||
	title == $title
)][0] ` + toolProjection

	queryBlogPosts = `*[_type == "blogPost" && !(_id in path("drafts.**"))] | order(publishedAt desc) {
	_id,
	title,
	"slug": slug.current,
	mainImage,
	publishedAt,
	excerpt
}`

	queryBlogPost = `*[_type == "blogPost" && slug.current == $slug][0] {
	_id,
	title,
	"slug": slug.current,
	mainImage,
	publishedAt,
	excerpt,
	body[] {
		_key,
		"value": value[] {
			...,
			_type == "toolEmbed" => {
				"tool": tool->{ _id, title, toolsentence, link, youtubeLink, image, showcaseImages }
			}
		}
	},
	outro
}`

	queryOfferItems = `*[_type == "offerItem" && !(_id in path("drafts.**"))] | order(coalesce(order, 9999) asc, _createdAt asc) {
	_id,
	order,
	heading,
	subtitle,
	body,
	image,
	imageAlt,
	variants[] { name, description }
}`

	queryTaxonomy = `*[_type == $type && !(_id in path("drafts.**"))] | order(title asc) { _id, title }`
)
