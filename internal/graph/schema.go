package graph

const schemaString = `
schema {
	query: Query
	mutation: Mutation
}

type User {
	id: ID!
	email: String!
}

type Query {
	me: User
}

type Mutation {
	login(email: String!, password: String!): String
}
`
