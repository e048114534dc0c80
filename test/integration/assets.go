package integration

// PeopleCSV has one duplicated row, a blank height and heights that need
// cleansing before they read as numbers.
const PeopleCSV = `Name,Age,City,Height
Ola,30,Oslo,180 cm
Kari,41,Bergen,165 cm
Per,25,Oslo,
Kari,41,Bergen,165 cm
`

// SemicolonCSV is sniffed as semicolon delimited.
const SemicolonCSV = `Product;Price;Sold
Kaffe;39,90;2024-01-05
Te;29,50;2024-01-06
`

// ScoresCSV marks missing scores the way pandas exports them.
const ScoresCSV = `name,score
ann,1.5
bob,NaN
cid,2.5
`
